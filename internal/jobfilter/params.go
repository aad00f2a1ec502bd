package jobfilter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/garnizeh/jobtrail/pkg/models"
)

// Query parameter names understood by ParseCriteria and produced by Encode.
const (
	ParamSearch   = "q"
	ParamStage    = "stage"
	ParamInterest = "interest"
	ParamLocation = "location"
	ParamArchived = "archived"
)

// ParseCriteria builds criteria from query-style values. "stage" may repeat or
// carry a comma separated list; "all" (or empty) disables interest and location.
func ParseCriteria(v url.Values) (Criteria, error) {
	c := Criteria{Search: v.Get(ParamSearch), Stages: StageSet{}}

	for _, raw := range v[ParamStage] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			st, err := models.ParseStage(part)
			if err != nil {
				return Criteria{}, err
			}
			c.Stages[st] = struct{}{}
		}
	}

	if s := strings.TrimSpace(v.Get(ParamInterest)); s != "" && s != "all" {
		n, err := strconv.Atoi(s)
		if err != nil || !models.ValidInterest(n) {
			return Criteria{}, fmt.Errorf("%w: %q", models.ErrInvalidInterest, s)
		}
		c.InterestScore = &n
	}

	if s := strings.TrimSpace(v.Get(ParamLocation)); s != "" && s != "all" {
		l, err := models.ParseLocationType(s)
		if err != nil {
			return Criteria{}, err
		}
		c.LocationType = &l
	}

	if s := v.Get(ParamArchived); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Criteria{}, fmt.Errorf("invalid %s value %q: %w", ParamArchived, s, err)
		}
		c.ShowArchived = b
	}

	return c, nil
}

// Encode is the inverse of ParseCriteria.
func (c Criteria) Encode() url.Values {
	v := url.Values{}
	if c.Search != "" {
		v.Set(ParamSearch, c.Search)
	}
	for _, st := range c.Stages.Sorted() {
		v.Add(ParamStage, string(st))
	}
	if c.InterestScore != nil {
		v.Set(ParamInterest, strconv.Itoa(*c.InterestScore))
	}
	if c.LocationType != nil {
		v.Set(ParamLocation, string(*c.LocationType))
	}
	if c.ShowArchived {
		v.Set(ParamArchived, "true")
	}
	return v
}
