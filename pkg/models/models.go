package models

import "time"

// Domain models matching the REST job store payloads (lib/api contract).

type Job struct {
	ID           string       `json:"id"`
	Company      string       `json:"company"`
	Role         string       `json:"role"`
	Location     string       `json:"location"`
	LocationType LocationType `json:"locationType"`
	Stage        Stage        `json:"stage"`
	// InterestScore is 1-5.
	InterestScore int          `json:"interestScore"`
	Salary        string       `json:"salary,omitempty"`
	SalaryRange   *SalaryRange `json:"salaryRange,omitempty"`
	// Compensation covers bonuses, equity, etc.
	Compensation    string          `json:"compensation,omitempty"`
	Currency        Currency        `json:"currency,omitempty"`
	URL             string          `json:"url,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Description     string          `json:"description,omitempty"`
	AppliedAt       *time.Time      `json:"appliedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Timeline        []TimelineEntry `json:"timeline"`
	IsArchived      bool            `json:"isArchived"`
	FollowUpDate    *time.Time      `json:"followUpDate,omitempty"`
	CompanyResearch string          `json:"companyResearch,omitempty"`
	StarStories     []StarStory     `json:"starStories,omitempty"`
	Contacts        []Contact       `json:"contacts,omitempty"`
}

type TimelineEntry struct {
	ID              string       `json:"id"`
	Date            time.Time    `json:"date"`
	Type            TimelineType `json:"type"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	RecruiterName   string       `json:"recruiterName,omitempty"`
	Interviewers    []string     `json:"interviewers,omitempty"`
	ResumeLink      string       `json:"resumeLink,omitempty"`
	CoverLetterLink string       `json:"coverLetterLink,omitempty"`
}

type StarStory struct {
	Situation         string `json:"situation"`
	Task              string `json:"task"`
	Action            string `json:"action"`
	Result            string `json:"result"`
	LinkedRequirement string `json:"linkedRequirement,omitempty"`
}

type Contact struct {
	Name            string     `json:"name"`
	Role            string     `json:"role,omitempty"`
	LinkedinURL     string     `json:"linkedinUrl,omitempty"`
	Email           string     `json:"email,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	LastContactedAt *time.Time `json:"lastContactedAt,omitempty"`
}

type SalaryRange struct {
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	Currency Currency `json:"currency"`
}

// Clone returns a deep copy so callers can hold a job without sharing its
// slices or pointers with the collection it came from.
func (j Job) Clone() Job {
	out := j
	out.AppliedAt = cloneTime(j.AppliedAt)
	out.FollowUpDate = cloneTime(j.FollowUpDate)
	if j.SalaryRange != nil {
		sr := *j.SalaryRange
		out.SalaryRange = &sr
	}
	if j.Timeline != nil {
		out.Timeline = make([]TimelineEntry, len(j.Timeline))
		for i, e := range j.Timeline {
			if e.Interviewers != nil {
				e.Interviewers = append([]string(nil), e.Interviewers...)
			}
			out.Timeline[i] = e
		}
	}
	if j.StarStories != nil {
		out.StarStories = append([]StarStory(nil), j.StarStories...)
	}
	if j.Contacts != nil {
		out.Contacts = make([]Contact, len(j.Contacts))
		for i, c := range j.Contacts {
			c.LastContactedAt = cloneTime(c.LastContactedAt)
			out.Contacts[i] = c
		}
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
