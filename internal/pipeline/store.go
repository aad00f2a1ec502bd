package pipeline

import (
	"sync"

	"github.com/garnizeh/jobtrail/pkg/models"
)

// Store is the local, ordered job collection the views read from. All reads
// hand out deep copies, so callers can never alias stored state.
type Store struct {
	mu    sync.RWMutex
	jobs  []models.Job
	index map[string]int
}

func NewStore(jobs ...models.Job) *Store {
	s := &Store{}
	s.Replace(jobs)
	return s
}

// Replace swaps the whole collection, keeping the given order.
func (s *Store) Replace(jobs []models.Job) {
	next := make([]models.Job, 0, len(jobs))
	index := make(map[string]int, len(jobs))
	for _, j := range jobs {
		if i, ok := index[j.ID]; ok {
			next[i] = j.Clone()
			continue
		}
		index[j.ID] = len(next)
		next = append(next, j.Clone())
	}

	s.mu.Lock()
	s.jobs, s.index = next, index
	s.mu.Unlock()
}

// merge swaps the collection like Replace, except for ids where pinned
// reports true: those keep their local state. A pinned job present locally
// replaces the incoming copy, or is appended when jobs lacks it; a pinned job
// absent locally stays absent.
func (s *Store) merge(jobs []models.Job, pinned func(id string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.Job, 0, len(jobs))
	index := make(map[string]int, len(jobs))
	add := func(j models.Job) {
		if i, ok := index[j.ID]; ok {
			next[i] = j
			return
		}
		index[j.ID] = len(next)
		next = append(next, j)
	}
	for _, j := range jobs {
		if !pinned(j.ID) {
			add(j.Clone())
			continue
		}
		if i, ok := s.index[j.ID]; ok {
			add(s.jobs[i])
		}
	}
	for _, j := range s.jobs {
		if _, ok := index[j.ID]; !ok && pinned(j.ID) {
			add(j)
		}
	}
	s.jobs, s.index = next, index
}

func (s *Store) List() []models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Job, len(s.jobs))
	for i, j := range s.jobs {
		out[i] = j.Clone()
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *Store) Get(id string) (models.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return models.Job{}, false
	}
	return s.jobs[i].Clone(), true
}

// Upsert replaces the job with the same id in place, or appends it.
func (s *Store) Upsert(job models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[job.ID]; ok {
		s.jobs[i] = job.Clone()
		return
	}
	s.index[job.ID] = len(s.jobs)
	s.jobs = append(s.jobs, job.Clone())
}

// Remove deletes the job and reports whether it was present.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
	delete(s.index, id)
	for k := i; k < len(s.jobs); k++ {
		s.index[s.jobs[k].ID] = k
	}
	return true
}

// update runs fn on the stored job in place. It reports false when id is unknown.
func (s *Store) update(id string, fn func(*models.Job)) (models.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return models.Job{}, false
	}
	fn(&s.jobs[i])
	return s.jobs[i].Clone(), true
}
