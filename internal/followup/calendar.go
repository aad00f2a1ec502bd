package followup

import (
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/garnizeh/jobtrail/pkg/models"
)

type EventKind string

const (
	KindApplied   EventKind = "applied"
	KindFollowUp  EventKind = "followup"
	KindReminder  EventKind = "reminder"
	KindInterview EventKind = "interview"
)

// AutoFollowUpAfter is how long after applying a follow-up is suggested.
const AutoFollowUpAfter = 7 * 24 * time.Hour

// Event is one calendar item. JobID refers back to the owning job; the event
// holds no other link to it.
type Event struct {
	ID    string
	Title string
	Date  time.Time
	Kind  EventKind
	JobID string
}

// Calendar yields the events derived from jobs. The sequence is finite and can
// be ranged over any number of times; each pass recomputes from jobs and now,
// so ids are stable for unchanged input. Archived jobs are skipped.
func Calendar(jobs []models.Job, now time.Time) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for i := range jobs {
			if jobs[i].IsArchived {
				continue
			}
			if !jobEvents(&jobs[i], now, yield) {
				return
			}
		}
	}
}

func jobEvents(j *models.Job, now time.Time, yield func(Event) bool) bool {
	if j.AppliedAt != nil {
		if !yield(Event{
			ID:    "applied:" + j.ID,
			Title: "Applied: " + j.Company,
			Date:  *j.AppliedAt,
			Kind:  KindApplied,
			JobID: j.ID,
		}) {
			return false
		}

		due := j.AppliedAt.Add(AutoFollowUpAfter)
		if !due.After(now) && j.Stage == models.StageApplying {
			if !yield(Event{
				ID:    "followup:" + j.ID,
				Title: "Follow up: " + j.Company,
				Date:  due,
				Kind:  KindFollowUp,
				JobID: j.ID,
			}) {
				return false
			}
		}
	}

	if j.FollowUpDate != nil {
		if !yield(Event{
			ID:    "reminder:" + j.ID,
			Title: "Reminder: " + j.Company,
			Date:  *j.FollowUpDate,
			Kind:  KindReminder,
			JobID: j.ID,
		}) {
			return false
		}
	}

	for _, e := range j.Timeline {
		if e.Type != models.TimelineInterview {
			continue
		}
		if !yield(Event{
			ID:    "interview:" + j.ID + ":" + e.ID,
			Title: e.Title + " - " + j.Company,
			Date:  e.Date,
			Kind:  KindInterview,
			JobID: j.ID,
		}) {
			return false
		}
	}
	return true
}

// CalendarRange restricts Calendar to events with from <= Date < to.
func CalendarRange(jobs []models.Job, now, from, to time.Time) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for ev := range Calendar(jobs, now) {
			if ev.Date.Before(from) || !ev.Date.Before(to) {
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// Agenda is CalendarRange plus every follow-up that fell due before from.
// Follow-ups stay on the agenda until acted on, however old the window start.
func Agenda(jobs []models.Job, now, from, to time.Time) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for ev := range Calendar(jobs, now) {
			overdue := ev.Kind == KindFollowUp && ev.Date.Before(from)
			if !overdue && (ev.Date.Before(from) || !ev.Date.Before(to)) {
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// FeedItem is one timeline entry with the job it belongs to.
type FeedItem struct {
	JobID   string
	Company string
	Role    string
	Entry   models.TimelineEntry
}

// Feed flattens the timelines of all active jobs, newest first, keeping only
// jobs whose company or role contains search (case-insensitive).
func Feed(jobs []models.Job, search string) []FeedItem {
	q := strings.ToLower(search)
	out := make([]FeedItem, 0)
	for _, j := range jobs {
		if j.IsArchived {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(j.Company), q) && !strings.Contains(strings.ToLower(j.Role), q) {
			continue
		}
		for _, e := range j.Timeline {
			out = append(out, FeedItem{JobID: j.ID, Company: j.Company, Role: j.Role, Entry: e})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Entry.Date.After(out[b].Entry.Date) })
	return out
}
