package followup_test

import (
	"slices"
	"testing"
	"time"

	"github.com/garnizeh/jobtrail/internal/followup"
	"github.com/garnizeh/jobtrail/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.May, 20, 15, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := now.Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}

func TestContactUrgency(t *testing.T) {
	future := now.Add(48 * time.Hour)
	almostTwo := now.Add(-47 * time.Hour)

	tests := []struct {
		name string
		last *time.Time
		want followup.Urgency
	}{
		{"never", nil, followup.Urgency{Status: followup.StatusWarning, Message: "Never contacted"}},
		{"today", daysAgo(0), followup.Urgency{Status: followup.StatusOK, Message: "Contacted 0 days ago"}},
		{"one day", daysAgo(1), followup.Urgency{Status: followup.StatusOK, Message: "Contacted 1 day ago"}},
		{"partial days floor", &almostTwo, followup.Urgency{Status: followup.StatusOK, Message: "Contacted 1 day ago"}},
		{"four days", daysAgo(4), followup.Urgency{Status: followup.StatusOK, Message: "Contacted 4 days ago"}},
		{"five days", daysAgo(5), followup.Urgency{Status: followup.StatusWarning, Message: "5 days since last contact"}},
		{"six days", daysAgo(6), followup.Urgency{Status: followup.StatusWarning, Message: "6 days since last contact"}},
		{"seven days", daysAgo(7), followup.Urgency{Status: followup.StatusDanger, Message: "7 days since last contact - follow up needed!"}},
		{"thirty days", daysAgo(30), followup.Urgency{Status: followup.StatusDanger, Message: "30 days since last contact - follow up needed!"}},
		{"future", &future, followup.Urgency{Status: followup.StatusOK, Message: "Contacted 0 days ago"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, followup.ContactUrgency(tt.last, now))
		})
	}
}

func TestUrgencyShort(t *testing.T) {
	assert.Equal(t, "Follow Up!", followup.ContactUrgency(daysAgo(9), now).Short())
	assert.Equal(t, "Soon", followup.ContactUrgency(nil, now).Short())
	assert.Equal(t, "OK", followup.ContactUrgency(daysAgo(2), now).Short())
}

func TestContacts(t *testing.T) {
	j := models.Job{Contacts: []models.Contact{
		{Name: "Ada", LastContactedAt: daysAgo(8)},
		{Name: "Linus"},
	}}
	got := followup.Contacts(j, now)
	require.Len(t, got, 2)
	assert.Equal(t, "Ada", got[0].Contact.Name)
	assert.Equal(t, followup.StatusDanger, got[0].Urgency.Status)
	assert.Equal(t, "Never contacted", got[1].Urgency.Message)
}

func TestBadge(t *testing.T) {
	sent := models.Job{Stage: models.StageRejected, Timeline: []models.TimelineEntry{{Type: models.TimelineFollowUp}}}
	assert.Equal(t, followup.BadgeSent, followup.Badge(sent))
	assert.Equal(t, followup.BadgePending, followup.Badge(models.Job{Stage: models.StageApplying}))
	assert.Equal(t, followup.BadgePending, followup.Badge(models.Job{Stage: models.StageInterviewing}))
	assert.Equal(t, followup.BadgeNone, followup.Badge(models.Job{Stage: models.StageOffer}))
	assert.Equal(t, "Follow-up sent", followup.BadgeSent.Label())
}

func calendarIDs(jobs []models.Job, at time.Time) []string {
	var ids []string
	for ev := range followup.Calendar(jobs, at) {
		ids = append(ids, ev.ID)
	}
	return ids
}

func TestCalendar_AutoFollowUp(t *testing.T) {
	applying := models.Job{ID: "a", Company: "Acme", Stage: models.StageApplying, AppliedAt: daysAgo(8)}
	interviewing := models.Job{ID: "b", Company: "Beta", Stage: models.StageInterviewing, AppliedAt: daysAgo(8)}
	recent := models.Job{ID: "c", Company: "Core", Stage: models.StageApplying, AppliedAt: daysAgo(3)}

	events := slices.Collect(followup.Calendar([]models.Job{applying, interviewing, recent}, now))
	require.Len(t, events, 4)

	assert.Equal(t, followup.Event{ID: "applied:a", Title: "Applied: Acme", Date: *applying.AppliedAt, Kind: followup.KindApplied, JobID: "a"}, events[0])
	assert.Equal(t, followup.Event{ID: "followup:a", Title: "Follow up: Acme", Date: applying.AppliedAt.Add(7 * 24 * time.Hour), Kind: followup.KindFollowUp, JobID: "a"}, events[1])
	assert.Equal(t, "applied:b", events[2].ID)
	assert.Equal(t, "applied:c", events[3].ID)
}

func TestCalendar_FollowUpDueExactlyNow(t *testing.T) {
	j := models.Job{ID: "a", Company: "Acme", Stage: models.StageApplying, AppliedAt: daysAgo(7)}
	assert.Equal(t, []string{"applied:a", "followup:a"}, calendarIDs([]models.Job{j}, now))
}

func TestCalendar_ReminderInterviewAndArchived(t *testing.T) {
	interview := time.Date(2026, time.May, 25, 10, 0, 0, 0, time.UTC)
	j := models.Job{
		ID: "a", Company: "Acme", Stage: models.StageInterviewing,
		FollowUpDate: daysAgo(-2),
		Timeline: []models.TimelineEntry{
			{ID: "e1", Type: models.TimelineInterview, Title: "Tech screen", Date: interview},
			{ID: "e2", Type: models.TimelineNote, Title: "Note", Date: interview},
		},
	}
	archived := models.Job{ID: "z", Company: "Zed", Stage: models.StageApplying, AppliedAt: daysAgo(10), IsArchived: true}

	events := slices.Collect(followup.Calendar([]models.Job{j, archived}, now))
	require.Len(t, events, 2)
	assert.Equal(t, "reminder:a", events[0].ID)
	assert.Equal(t, "Reminder: Acme", events[0].Title)
	assert.Equal(t, "interview:a:e1", events[1].ID)
	assert.Equal(t, "Tech screen - Acme", events[1].Title)
	assert.Equal(t, followup.KindInterview, events[1].Kind)
}

func TestCalendar_RestartableAndStableIDs(t *testing.T) {
	jobs := []models.Job{
		{ID: "a", Company: "Acme", Stage: models.StageApplying, AppliedAt: daysAgo(10)},
		{ID: "b", Company: "Beta", Stage: models.StageApplying, AppliedAt: daysAgo(1)},
	}
	seq := followup.Calendar(jobs, now)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)

	// early break stops the sequence cleanly
	n := 0
	for range seq {
		n++
		break
	}
	assert.Equal(t, 1, n)

	// the same event keeps its id in any window that contains it
	wide := slices.Collect(followup.CalendarRange(jobs, now, now.AddDate(0, -1, 0), now.AddDate(0, 1, 0)))
	narrow := slices.Collect(followup.CalendarRange(jobs, now, now.Add(-4*24*time.Hour), now))
	require.Len(t, narrow, 2)
	assert.Equal(t, "followup:a", narrow[0].ID)
	assert.Equal(t, "applied:b", narrow[1].ID)
	assert.Len(t, wide, 3)
}

func TestAgenda_KeepsOverdueFollowUps(t *testing.T) {
	jobs := []models.Job{
		{ID: "a", Company: "Acme", Stage: models.StageApplying, AppliedAt: daysAgo(30), FollowUpDate: daysAgo(20)},
		{ID: "b", Company: "Beta", Stage: models.StageInterviewing, AppliedAt: daysAgo(30)},
		{ID: "c", Company: "Core", Stage: models.StageApplying, AppliedAt: daysAgo(1)},
	}
	from := now.Add(-24 * time.Hour)
	to := now.AddDate(0, 0, 7)

	var ids []string
	for ev := range followup.Agenda(jobs, now, from, to) {
		ids = append(ids, ev.ID)
	}
	// old reminders and applications stay outside the window
	assert.Equal(t, []string{"followup:a", "applied:c"}, ids)

	n := 0
	for range followup.Agenda(jobs, now, from, to) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestFeed(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2026, time.May, day, 0, 0, 0, 0, time.UTC) }
	jobs := []models.Job{
		{ID: "a", Company: "Acme", Role: "Backend", Timeline: []models.TimelineEntry{
			{ID: "a1", Date: d(1), Type: models.TimelineApplication},
			{ID: "a2", Date: d(10), Type: models.TimelineInterview},
		}},
		{ID: "b", Company: "Beta", Role: "Frontend", Timeline: []models.TimelineEntry{
			{ID: "b1", Date: d(5), Type: models.TimelineNote},
			{ID: "b2", Date: d(10), Type: models.TimelineFollowUp},
		}},
		{ID: "x", Company: "Gone", Role: "Backend", IsArchived: true, Timeline: []models.TimelineEntry{{ID: "x1", Date: d(20)}}},
	}

	var got []string
	for _, it := range followup.Feed(jobs, "") {
		got = append(got, it.Entry.ID)
	}
	assert.Equal(t, []string{"a2", "b2", "b1", "a1"}, got)

	filtered := followup.Feed(jobs, "FRONT")
	require.Len(t, filtered, 2)
	assert.Equal(t, "Beta", filtered[0].Company)

	assert.Empty(t, followup.Feed(nil, ""))
}
