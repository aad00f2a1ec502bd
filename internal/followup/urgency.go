// Package followup derives follow-up state from a job collection: how urgent
// each contact is, which events land on the calendar, the Kanban follow-up
// badge and the flattened timeline feed. Nothing here is stored.
package followup

import (
	"fmt"
	"time"

	"github.com/garnizeh/jobtrail/pkg/models"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusDanger  Status = "danger"
)

const (
	// DangerAfterDays and WarnAfterDays bound the contact urgency bands.
	DangerAfterDays = 7
	WarnAfterDays   = 5
)

type Urgency struct {
	Status  Status
	Message string
}

// Short is the compact badge text.
func (u Urgency) Short() string {
	switch u.Status {
	case StatusDanger:
		return "Follow Up!"
	case StatusWarning:
		return "Soon"
	}
	return "OK"
}

// DaysSince counts whole elapsed days from t to now. Future instants count as 0.
func DaysSince(t, now time.Time) int {
	d := now.Sub(t)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// ContactUrgency classifies how long ago a contact was last reached.
func ContactUrgency(lastContactedAt *time.Time, now time.Time) Urgency {
	if lastContactedAt == nil {
		return Urgency{Status: StatusWarning, Message: "Never contacted"}
	}

	n := DaysSince(*lastContactedAt, now)
	switch {
	case n >= DangerAfterDays:
		return Urgency{Status: StatusDanger, Message: fmt.Sprintf("%d days since last contact - follow up needed!", n)}
	case n >= WarnAfterDays:
		return Urgency{Status: StatusWarning, Message: fmt.Sprintf("%d days since last contact", n)}
	}

	unit := "days"
	if n == 1 {
		unit = "day"
	}
	return Urgency{Status: StatusOK, Message: fmt.Sprintf("Contacted %d %s ago", n, unit)}
}

type ContactStatus struct {
	Contact models.Contact
	Urgency Urgency
}

// Contacts pairs every contact of job with its urgency, in job order.
func Contacts(job models.Job, now time.Time) []ContactStatus {
	out := make([]ContactStatus, 0, len(job.Contacts))
	for _, c := range job.Contacts {
		out = append(out, ContactStatus{Contact: c, Urgency: ContactUrgency(c.LastContactedAt, now)})
	}
	return out
}

// BadgeStatus is the follow-up marker on a Kanban card.
type BadgeStatus string

const (
	BadgeNone    BadgeStatus = ""
	BadgeSent    BadgeStatus = "sent"
	BadgePending BadgeStatus = "pending"
)

func (b BadgeStatus) Label() string {
	switch b {
	case BadgeSent:
		return "Follow-up sent"
	case BadgePending:
		return "Follow-up pending"
	}
	return ""
}

// Badge is Sent once any follow-up entry exists, Pending while the job is
// still applying or interviewing, and None otherwise.
func Badge(job models.Job) BadgeStatus {
	for _, e := range job.Timeline {
		if e.Type == models.TimelineFollowUp {
			return BadgeSent
		}
	}
	if job.Stage == models.StageApplying || job.Stage == models.StageInterviewing {
		return BadgePending
	}
	return BadgeNone
}
