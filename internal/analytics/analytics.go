// Package analytics derives the dashboard and analytics numbers from a job
// collection. Archived jobs never count, and every function accepts an empty
// or nil slice.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/garnizeh/jobtrail/pkg/models"
)

// Stats is the headline block of the analytics view.
type Stats struct {
	Total         int
	Interviewing  int
	Offers        int
	ResponseRate  int
	InterviewRate int
	OfferRate     int
	GhostingRate  int
	ByStage       map[models.Stage]int
}

// ScoreCount is one bar of the interest distribution.
type ScoreCount struct {
	Score int
	Count int
}

// StageShare is one row of the pipeline overview.
type StageShare struct {
	Stage   models.Stage
	Count   int
	Percent int
}

// MonthPoint counts activity within one calendar month.
type MonthPoint struct {
	Month        time.Time // first instant of the month, UTC
	Applications int
	Interviews   int
	Offers       int
}

// Label renders the month as "Jan".
func (p MonthPoint) Label() string {
	return p.Month.Format("Jan")
}

func active(jobs []models.Job) []models.Job {
	out := make([]models.Job, 0, len(jobs))
	for _, j := range jobs {
		if !j.IsArchived {
			out = append(out, j)
		}
	}
	return out
}

// percent is round-half-up of 100*n/total, 0 when total is 0.
func percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(n)*100/float64(total) + 0.5))
}

func CountByStage(jobs []models.Job) map[models.Stage]int {
	out := make(map[models.Stage]int)
	for _, j := range jobs {
		if !j.IsArchived {
			out[j.Stage]++
		}
	}
	return out
}

func countStages(jobs []models.Job, stages ...models.Stage) (n, total int) {
	for _, j := range jobs {
		if j.IsArchived {
			continue
		}
		total++
		for _, st := range stages {
			if j.Stage == st {
				n++
				break
			}
		}
	}
	return n, total
}

func GhostingRate(jobs []models.Job) int {
	return percent(countStages(jobs, models.StageGhosting))
}

// ResponseRate is the share of jobs that did not ghost.
func ResponseRate(jobs []models.Job) int {
	ghosting, total := countStages(jobs, models.StageGhosting)
	return percent(total-ghosting, total)
}

func InterviewRate(jobs []models.Job) int {
	return percent(countStages(jobs, models.StageInterviewing))
}

// OfferRate counts both offer and accepted.
func OfferRate(jobs []models.Job) int {
	return percent(countStages(jobs, models.StageOffer, models.StageAccepted))
}

func ByLocationType(jobs []models.Job) map[models.LocationType]int {
	out := make(map[models.LocationType]int)
	for _, j := range jobs {
		if !j.IsArchived {
			out[j.LocationType]++
		}
	}
	return out
}

// ByInterestScore returns one entry per score present, highest score first.
func ByInterestScore(jobs []models.Job) []ScoreCount {
	counts := make(map[int]int)
	for _, j := range jobs {
		if !j.IsArchived {
			counts[j.InterestScore]++
		}
	}
	out := make([]ScoreCount, 0, len(counts))
	for score, n := range counts {
		out = append(out, ScoreCount{Score: score, Count: n})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Score > out[k].Score })
	return out
}

func Summarize(jobs []models.Job) Stats {
	byStage := CountByStage(jobs)
	total := 0
	for _, n := range byStage {
		total += n
	}
	ghosting := byStage[models.StageGhosting]
	offers := byStage[models.StageOffer] + byStage[models.StageAccepted]
	interviewing := byStage[models.StageInterviewing]

	return Stats{
		Total:         total,
		Interviewing:  interviewing,
		Offers:        offers,
		ResponseRate:  percent(total-ghosting, total),
		InterviewRate: percent(interviewing, total),
		OfferRate:     percent(offers, total),
		GhostingRate:  percent(ghosting, total),
		ByStage:       byStage,
	}
}

// StageDistribution lists every stage in pipeline order, including empty ones.
func StageDistribution(jobs []models.Job) []StageShare {
	byStage := CountByStage(jobs)
	total := 0
	for _, n := range byStage {
		total += n
	}
	stages := models.AllStages()
	out := make([]StageShare, 0, len(stages))
	for _, st := range stages {
		out = append(out, StageShare{Stage: st, Count: byStage[st], Percent: percent(byStage[st], total)})
	}
	return out
}

// Recent returns up to n active jobs in input order.
func Recent(jobs []models.Job, n int) []models.Job {
	a := active(jobs)
	if n < 0 {
		n = 0
	}
	if len(a) > n {
		a = a[:n]
	}
	return a
}

// Offers returns the active jobs holding an offer, for side-by-side comparison.
func Offers(jobs []models.Job) []models.Job {
	out := make([]models.Job, 0)
	for _, j := range jobs {
		if !j.IsArchived && (j.Stage == models.StageOffer || j.Stage == models.StageAccepted) {
			out = append(out, j)
		}
	}
	return out
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Monthly buckets applications (AppliedAt), interview entries and offer entries
// into the last `months` calendar months ending with the month of now, oldest
// first. Activity outside the window is dropped.
func Monthly(jobs []models.Job, now time.Time, months int) []MonthPoint {
	if months <= 0 {
		return []MonthPoint{}
	}
	last := monthStart(now)
	first := last.AddDate(0, -(months - 1), 0)

	out := make([]MonthPoint, months)
	for i := range out {
		out[i].Month = first.AddDate(0, i, 0)
	}

	slot := func(t time.Time) int {
		m := monthStart(t)
		if m.Before(first) || m.After(last) {
			return -1
		}
		return (m.Year()-first.Year())*12 + int(m.Month()) - int(first.Month())
	}

	for _, j := range jobs {
		if j.IsArchived {
			continue
		}
		if j.AppliedAt != nil {
			if i := slot(*j.AppliedAt); i >= 0 {
				out[i].Applications++
			}
		}
		for _, e := range j.Timeline {
			i := slot(e.Date)
			if i < 0 {
				continue
			}
			switch e.Type {
			case models.TimelineInterview:
				out[i].Interviews++
			case models.TimelineOffer:
				out[i].Offers++
			}
		}
	}
	return out
}
