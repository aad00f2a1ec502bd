// Package jobfilter narrows a job collection down to what the Jobs list shows.
// Every predicate is independent and they are combined with AND, so the order
// in which they run only matters for early exit.
package jobfilter

import (
	"strings"

	"github.com/garnizeh/jobtrail/pkg/models"
)

// StageSet is a set of stages. The empty set lets every stage through.
type StageSet map[models.Stage]struct{}

func NewStageSet(stages ...models.Stage) StageSet {
	s := make(StageSet, len(stages))
	for _, st := range stages {
		s[st] = struct{}{}
	}
	return s
}

func (s StageSet) Has(st models.Stage) bool {
	_, ok := s[st]
	return ok
}

// Toggle adds st when absent and removes it when present.
func (s StageSet) Toggle(st models.Stage) {
	if s.Has(st) {
		delete(s, st)
		return
	}
	s[st] = struct{}{}
}

// Sorted returns the members in pipeline order.
func (s StageSet) Sorted() []models.Stage {
	out := make([]models.Stage, 0, len(s))
	for _, st := range models.AllStages() {
		if s.Has(st) {
			out = append(out, st)
		}
	}
	return out
}

// Criteria is the filter state of the Jobs view. The zero value shows every
// non-archived job.
type Criteria struct {
	Search        string
	Stages        StageSet
	InterestScore *int
	LocationType  *models.LocationType
	ShowArchived  bool
}

// HasActive reports whether any narrowing filter is set. The archive toggle
// selects a view rather than narrowing it, so it does not count.
func (c Criteria) HasActive() bool {
	return c.Search != "" || len(c.Stages) > 0 || c.InterestScore != nil || c.LocationType != nil
}

// Filter returns the jobs matching c in their input order. It never returns nil.
func Filter(jobs []models.Job, c Criteria) []models.Job {
	m := newMatcher(c)
	out := make([]models.Job, 0, len(jobs))
	for _, j := range jobs {
		if m.match(&j) {
			out = append(out, j)
		}
	}
	return out
}

// Match reports whether a single job passes c.
func Match(job models.Job, c Criteria) bool {
	return newMatcher(c).match(&job)
}

// Total counts the jobs in the selected archive view, ignoring every other
// predicate. It is the denominator of "N of M jobs".
func Total(jobs []models.Job, showArchived bool) int {
	n := 0
	for _, j := range jobs {
		if j.IsArchived == showArchived {
			n++
		}
	}
	return n
}

type matcher struct {
	c      Criteria
	search string
}

func newMatcher(c Criteria) matcher {
	return matcher{c: c, search: strings.ToLower(c.Search)}
}

func (m matcher) match(j *models.Job) bool {
	if j.IsArchived != m.c.ShowArchived {
		return false
	}
	if m.search != "" &&
		!strings.Contains(strings.ToLower(j.Company), m.search) &&
		!strings.Contains(strings.ToLower(j.Role), m.search) {
		return false
	}
	if len(m.c.Stages) > 0 && !m.c.Stages.Has(j.Stage) {
		return false
	}
	if m.c.InterestScore != nil && j.InterestScore != *m.c.InterestScore {
		return false
	}
	if m.c.LocationType != nil && j.LocationType != *m.c.LocationType {
		return false
	}
	return true
}
