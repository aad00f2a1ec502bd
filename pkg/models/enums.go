package models

import (
	"errors"
	"fmt"
	"strings"
)

// Stage is one of the closed set of pipeline states a job application can occupy.
type Stage string

const (
	StageTagged       Stage = "tagged"
	StageApplying     Stage = "applying"
	StageInterviewing Stage = "interviewing"
	StageOffer        Stage = "offer"
	StageAccepted     Stage = "accepted"
	StageWithdrawn    Stage = "withdrawn"
	StageRejected     Stage = "rejected"
	StageGhosting     Stage = "ghosting"
)

// LocationType describes where the work happens.
type LocationType string

const (
	LocationRemote LocationType = "remote"
	LocationHybrid LocationType = "hybrid"
	LocationOnsite LocationType = "onsite"
)

// TimelineType tags a timeline entry.
type TimelineType string

const (
	TimelineInterview   TimelineType = "interview"
	TimelineFollowUp    TimelineType = "followup"
	TimelineOffer       TimelineType = "offer"
	TimelineNote        TimelineType = "note"
	TimelineApplication TimelineType = "application"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyNGN Currency = "NGN"
	CurrencyCAD Currency = "CAD"
	CurrencyAUD Currency = "AUD"
	CurrencyINR Currency = "INR"
	CurrencyJPY Currency = "JPY"
)

var (
	ErrInvalidStage    = errors.New("invalid stage")
	ErrInvalidLocation = errors.New("invalid location type")
	ErrInvalidInterest = errors.New("interest score must be between 1 and 5")
	ErrInvalidTimeline = errors.New("invalid timeline type")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidSalary   = errors.New("invalid salary range")
	ErrMissingField    = errors.New("missing required field")
)

const (
	MinInterest = 1
	MaxInterest = 5
	// DefaultInterest is used when a job is created without a score.
	DefaultInterest = 3
)

var allStages = []Stage{
	StageTagged, StageApplying, StageInterviewing, StageOffer,
	StageAccepted, StageWithdrawn, StageRejected, StageGhosting,
}

var stageLabels = map[Stage]string{
	StageTagged:       "Tagged (Not Yet)",
	StageApplying:     "Applying",
	StageInterviewing: "Interviewing",
	StageOffer:        "Offer",
	StageAccepted:     "Accepted",
	StageWithdrawn:    "Withdrawn",
	StageRejected:     "Rejected",
	StageGhosting:     "Ghosting",
}

// AllStages returns the stages in pipeline order. The slice is a fresh copy.
func AllStages() []Stage {
	return append([]Stage(nil), allStages...)
}

// KanbanStages returns the columns shown on the board.
func KanbanStages() []Stage {
	return []Stage{StageApplying, StageInterviewing, StageOffer, StageRejected}
}

// Valid returns true if the Stage is one of the eight pipeline stages.
func (s Stage) Valid() bool {
	_, ok := stageLabels[s]
	return ok
}

// Label returns the display label, or the raw value for unknown stages.
func (s Stage) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStage normalizes and validates a stage name.
func ParseStage(v string) (Stage, error) {
	s := Stage(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStage, v)
	}
	return s, nil
}

// UnmarshalText implements encoding.TextUnmarshaler so invalid stages are
// rejected at decode time.
func (s *Stage) UnmarshalText(text []byte) error {
	v, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (l LocationType) Valid() bool {
	return l == LocationRemote || l == LocationHybrid || l == LocationOnsite
}

func (l LocationType) Label() string {
	switch l {
	case LocationRemote:
		return "Remote"
	case LocationHybrid:
		return "Hybrid"
	case LocationOnsite:
		return "On-site"
	}
	return string(l)
}

func ParseLocationType(v string) (LocationType, error) {
	l := LocationType(strings.ToLower(strings.TrimSpace(v)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocation, v)
	}
	return l, nil
}

func (t TimelineType) Valid() bool {
	switch t {
	case TimelineInterview, TimelineFollowUp, TimelineOffer, TimelineNote, TimelineApplication:
		return true
	}
	return false
}

func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyNGN, CurrencyCAD, CurrencyAUD, CurrencyINR, CurrencyJPY:
		return true
	}
	return false
}

var currencySymbols = map[Currency]string{
	CurrencyUSD: "$",
	CurrencyEUR: "€",
	CurrencyGBP: "£",
	CurrencyNGN: "₦",
	CurrencyCAD: "C$",
	CurrencyAUD: "A$",
	CurrencyINR: "₹",
	CurrencyJPY: "¥",
}

// Label renders a currency as "USD ($)".
func (c Currency) Label() string {
	if sym, ok := currencySymbols[c]; ok {
		return fmt.Sprintf("%s (%s)", c, sym)
	}
	return string(c)
}

// IsValidation reports whether err is one of the field validation errors.
func IsValidation(err error) bool {
	for _, target := range []error{ErrInvalidStage, ErrInvalidLocation, ErrInvalidInterest, ErrInvalidTimeline, ErrInvalidCurrency, ErrInvalidSalary, ErrMissingField} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ValidInterest reports whether score is inside [MinInterest, MaxInterest].
func ValidInterest(score int) bool {
	return score >= MinInterest && score <= MaxInterest
}
