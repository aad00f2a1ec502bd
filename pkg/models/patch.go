package models

import (
	"fmt"
	"strings"
	"time"
)

// JobPatch is a partial Job. Nil fields are left untouched by Apply and are
// omitted on the wire, so the same type serves create and update requests.
type JobPatch struct {
	Company         *string          `json:"company,omitempty"`
	Role            *string          `json:"role,omitempty"`
	Location        *string          `json:"location,omitempty"`
	LocationType    *LocationType    `json:"locationType,omitempty"`
	Stage           *Stage           `json:"stage,omitempty"`
	InterestScore   *int             `json:"interestScore,omitempty"`
	Salary          *string          `json:"salary,omitempty"`
	SalaryRange     *SalaryRange     `json:"salaryRange,omitempty"`
	Compensation    *string          `json:"compensation,omitempty"`
	Currency        *Currency        `json:"currency,omitempty"`
	URL             *string          `json:"url,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	Description     *string          `json:"description,omitempty"`
	AppliedAt       *time.Time       `json:"appliedAt,omitempty"`
	IsArchived      *bool            `json:"isArchived,omitempty"`
	FollowUpDate    *time.Time       `json:"followUpDate,omitempty"`
	CompanyResearch *string          `json:"companyResearch,omitempty"`
	Timeline        *[]TimelineEntry `json:"timeline,omitempty"`
	StarStories     *[]StarStory     `json:"starStories,omitempty"`
	Contacts        *[]Contact       `json:"contacts,omitempty"`
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T { return &v }

// StagePatch is the confirm request issued for a stage move.
func StagePatch(s Stage) JobPatch {
	return JobPatch{Stage: &s}
}

// Empty reports whether the patch sets no field at all.
func (p JobPatch) Empty() bool {
	return p == JobPatch{}
}

// Validate checks the enum and range invariants of every set field.
func (p JobPatch) Validate() error {
	if p.Stage != nil && !p.Stage.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStage, *p.Stage)
	}
	if p.LocationType != nil && !p.LocationType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLocation, *p.LocationType)
	}
	if p.InterestScore != nil && !ValidInterest(*p.InterestScore) {
		return fmt.Errorf("%w: got %d", ErrInvalidInterest, *p.InterestScore)
	}
	if p.Currency != nil && !p.Currency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, *p.Currency)
	}
	if p.SalaryRange != nil {
		if !p.SalaryRange.Currency.Valid() {
			return fmt.Errorf("salary range: %w: %q", ErrInvalidCurrency, p.SalaryRange.Currency)
		}
		if p.SalaryRange.Max < p.SalaryRange.Min {
			return fmt.Errorf("%w: max %v below min %v", ErrInvalidSalary, p.SalaryRange.Max, p.SalaryRange.Min)
		}
	}
	if p.Timeline != nil {
		for _, e := range *p.Timeline {
			if !e.Type.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidTimeline, e.Type)
			}
		}
	}
	return nil
}

// ValidateCreate additionally requires the fields a new job cannot lack.
func (p JobPatch) ValidateCreate() error {
	if p.Company == nil || strings.TrimSpace(*p.Company) == "" {
		return fmt.Errorf("%w: company", ErrMissingField)
	}
	if p.Role == nil || strings.TrimSpace(*p.Role) == "" {
		return fmt.Errorf("%w: role", ErrMissingField)
	}
	return p.Validate()
}

// Apply copies every set field onto job and refreshes UpdatedAt.
func (p JobPatch) Apply(job *Job, now time.Time) {
	setIf(&job.Company, p.Company)
	setIf(&job.Role, p.Role)
	setIf(&job.Location, p.Location)
	setIf(&job.LocationType, p.LocationType)
	setIf(&job.Stage, p.Stage)
	setIf(&job.InterestScore, p.InterestScore)
	setIf(&job.Salary, p.Salary)
	setIf(&job.Compensation, p.Compensation)
	setIf(&job.Currency, p.Currency)
	setIf(&job.URL, p.URL)
	setIf(&job.Notes, p.Notes)
	setIf(&job.Description, p.Description)
	setIf(&job.IsArchived, p.IsArchived)
	setIf(&job.CompanyResearch, p.CompanyResearch)
	setIf(&job.Timeline, p.Timeline)
	setIf(&job.StarStories, p.StarStories)
	setIf(&job.Contacts, p.Contacts)
	if p.SalaryRange != nil {
		sr := *p.SalaryRange
		job.SalaryRange = &sr
	}
	if p.AppliedAt != nil {
		job.AppliedAt = cloneTime(p.AppliedAt)
	}
	if p.FollowUpDate != nil {
		job.FollowUpDate = cloneTime(p.FollowUpDate)
	}
	job.UpdatedAt = now
}

// NewJob builds a job from a create patch with the lifecycle defaults applied:
// stage tagged, interest 3, CreatedAt = UpdatedAt = now.
func NewJob(id string, p JobPatch, now time.Time) Job {
	j := Job{
		ID:            id,
		Stage:         StageTagged,
		LocationType:  LocationOnsite,
		InterestScore: DefaultInterest,
		CreatedAt:     now,
		Timeline:      []TimelineEntry{},
	}
	p.Apply(&j, now)
	return j
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
