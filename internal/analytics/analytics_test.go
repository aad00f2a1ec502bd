package analytics_test

import (
	"testing"
	"time"

	"github.com/garnizeh/jobtrail/internal/analytics"
	"github.com/garnizeh/jobtrail/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func job(id string, st models.Stage) models.Job {
	return models.Job{ID: id, Company: "Co " + id, Role: "Engineer", Stage: st, InterestScore: 3, LocationType: models.LocationRemote}
}

func TestRates_EmptyInput(t *testing.T) {
	for _, jobs := range [][]models.Job{nil, {}} {
		assert.Zero(t, analytics.GhostingRate(jobs))
		assert.Zero(t, analytics.ResponseRate(jobs))
		assert.Zero(t, analytics.InterviewRate(jobs))
		assert.Zero(t, analytics.OfferRate(jobs))
		assert.Empty(t, analytics.CountByStage(jobs))
		assert.Empty(t, analytics.ByInterestScore(jobs))

		s := analytics.Summarize(jobs)
		assert.Zero(t, s.Total)
		assert.Zero(t, s.ResponseRate)
	}
}

func TestOfferRate_CountsAccepted(t *testing.T) {
	jobs := []models.Job{job("1", models.StageOffer), job("2", models.StageAccepted), job("3", models.StageOffer)}
	assert.Equal(t, 100, analytics.OfferRate(jobs))
}

func TestRates_RoundHalfUp(t *testing.T) {
	// 1 ghosting of 8 = 12.5% -> 13; response 87.5% -> 88
	jobs := []models.Job{job("g", models.StageGhosting)}
	for i := range 7 {
		jobs = append(jobs, job(string(rune('a'+i)), models.StageApplying))
	}
	assert.Equal(t, 13, analytics.GhostingRate(jobs))
	assert.Equal(t, 88, analytics.ResponseRate(jobs))
}

func TestArchivedJobsExcluded(t *testing.T) {
	archived := job("x", models.StageGhosting)
	archived.IsArchived = true
	jobs := []models.Job{job("1", models.StageInterviewing), job("2", models.StageApplying), archived}

	assert.Equal(t, 0, analytics.GhostingRate(jobs))
	assert.Equal(t, 50, analytics.InterviewRate(jobs))
	assert.Equal(t, map[models.Stage]int{models.StageInterviewing: 1, models.StageApplying: 1}, analytics.CountByStage(jobs))

	s := analytics.Summarize(jobs)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Interviewing)
	assert.Equal(t, 100, s.ResponseRate)
}

func TestByInterestScore_Descending(t *testing.T) {
	a, b, c := job("a", models.StageApplying), job("b", models.StageApplying), job("c", models.StageApplying)
	a.InterestScore, b.InterestScore, c.InterestScore = 2, 5, 2
	got := analytics.ByInterestScore([]models.Job{a, b, c})
	assert.Equal(t, []analytics.ScoreCount{{Score: 5, Count: 1}, {Score: 2, Count: 2}}, got)
}

func TestByLocationType(t *testing.T) {
	a, b := job("a", models.StageApplying), job("b", models.StageApplying)
	b.LocationType = models.LocationHybrid
	got := analytics.ByLocationType([]models.Job{a, b})
	assert.Equal(t, 1, got[models.LocationRemote])
	assert.Equal(t, 1, got[models.LocationHybrid])
	assert.Zero(t, got[models.LocationOnsite])
}

func TestStageDistribution(t *testing.T) {
	jobs := []models.Job{job("1", models.StageApplying), job("2", models.StageApplying), job("3", models.StageOffer), job("4", models.StageRejected)}
	got := analytics.StageDistribution(jobs)
	require.Len(t, got, len(models.AllStages()))
	assert.Equal(t, models.StageTagged, got[0].Stage)
	assert.Equal(t, analytics.StageShare{Stage: models.StageApplying, Count: 2, Percent: 50}, got[1])
	assert.Equal(t, analytics.StageShare{Stage: models.StageOffer, Count: 1, Percent: 25}, got[3])
}

func TestRecentAndOffers(t *testing.T) {
	archived := job("x", models.StageOffer)
	archived.IsArchived = true
	jobs := []models.Job{archived, job("1", models.StageOffer), job("2", models.StageApplying), job("3", models.StageAccepted)}

	recent := analytics.Recent(jobs, 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "1", recent[0].ID)
	assert.Equal(t, "2", recent[1].ID)
	assert.Len(t, analytics.Recent(jobs, 10), 3)
	assert.Empty(t, analytics.Recent(jobs, -1))

	offers := analytics.Offers(jobs)
	require.Len(t, offers, 2)
	assert.Equal(t, "1", offers[0].ID)
	assert.Equal(t, "3", offers[1].ID)
}

func TestMonthly(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	jan := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	old := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	a := job("a", models.StageInterviewing)
	a.AppliedAt = &jan
	a.Timeline = []models.TimelineEntry{
		{ID: "e1", Type: models.TimelineInterview, Date: mar},
		{ID: "e2", Type: models.TimelineNote, Date: mar},
		{ID: "e3", Type: models.TimelineOffer, Date: mar},
	}
	b := job("b", models.StageApplying)
	b.AppliedAt = &old

	got := analytics.Monthly([]models.Job{a, b}, now, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "Jan", got[0].Label())
	assert.Equal(t, 1, got[0].Applications)
	assert.Equal(t, analytics.MonthPoint{Month: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)}, got[1])
	assert.Equal(t, 1, got[2].Interviews)
	assert.Equal(t, 1, got[2].Offers)

	assert.Empty(t, analytics.Monthly(nil, now, 0))
}

func TestMonthly_AcrossYearBoundary(t *testing.T) {
	now := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	nov := time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC)
	a := job("a", models.StageApplying)
	a.AppliedAt = &nov

	got := analytics.Monthly([]models.Job{a}, now, 3)
	require.Len(t, got, 3)
	assert.Equal(t, time.November, got[0].Month.Month())
	assert.Equal(t, 1, got[0].Applications)
	assert.Equal(t, time.January, got[2].Month.Month())
}
