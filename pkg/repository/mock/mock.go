package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/garnizeh/jobtrail/pkg/models"
	"github.com/garnizeh/jobtrail/pkg/repository"
	"github.com/google/uuid"
)

// Operation names used for failure injection and call counting.
const (
	OpList     = "list"
	OpGet      = "get"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpArchive  = "archive"
	OpFollowUp = "follow_up"
)

var _ repository.JobStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory JobStore for tests and local development. It
// keeps insertion order, assigns uuid ids and can be told to fail any operation.
type MemoryStore struct {
	mu    sync.Mutex
	jobs  []models.Job
	errs  map[string]error
	calls map[string]int
	hooks map[string]func(id string)

	// Now is the clock used for timestamps; defaults to time.Now.
	Now func() time.Time
}

func NewMemoryStore(jobs ...models.Job) *MemoryStore {
	m := &MemoryStore{
		errs:  make(map[string]error),
		calls: make(map[string]int),
		hooks: make(map[string]func(string)),
		Now:   time.Now,
	}
	for _, j := range jobs {
		m.jobs = append(m.jobs, j.Clone())
	}
	return m
}

// Fail makes every subsequent call of op return err. A nil err clears it.
func (m *MemoryStore) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
		return
	}
	m.errs[op] = err
}

// OnCall registers fn to run (without the store lock held) when op is invoked,
// before the operation takes effect. Tests use it to observe in-flight state.
func (m *MemoryStore) OnCall(op string, fn func(id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[op] = fn
}

// Calls returns how many times op was invoked.
func (m *MemoryStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Jobs returns a copy of the stored collection.
func (m *MemoryStore) Jobs() []models.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Job, len(m.jobs))
	for i, j := range m.jobs {
		out[i] = j.Clone()
	}
	return out
}

func (m *MemoryStore) begin(op, id string) error {
	m.mu.Lock()
	m.calls[op]++
	hook := m.hooks[op]
	err := m.errs[op]
	m.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	return err
}

func (m *MemoryStore) indexOf(id string) int {
	for i := range m.jobs {
		if m.jobs[i].ID == id {
			return i
		}
	}
	return -1
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", repository.ErrNotFound, id)
}

func (m *MemoryStore) ListJobs(ctx context.Context) ([]models.Job, error) {
	if err := m.begin(OpList, ""); err != nil {
		return nil, err
	}
	return m.Jobs(), nil
}

func (m *MemoryStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	if err := m.begin(OpGet, id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, notFound(id)
	}
	j := m.jobs[i].Clone()
	return &j, nil
}

func (m *MemoryStore) CreateJob(ctx context.Context, p models.JobPatch) (*models.Job, error) {
	if err := m.begin(OpCreate, ""); err != nil {
		return nil, err
	}
	if err := p.ValidateCreate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j := models.NewJob(uuid.NewString(), p, m.Now().UTC())
	m.jobs = append(m.jobs, j)
	out := j.Clone()
	return &out, nil
}

func (m *MemoryStore) UpdateJob(ctx context.Context, id string, p models.JobPatch) (*models.Job, error) {
	if err := m.begin(OpUpdate, id); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return m.mutate(id, func(j *models.Job, now time.Time) { p.Apply(j, now) })
}

func (m *MemoryStore) DeleteJob(ctx context.Context, id string) error {
	if err := m.begin(OpDelete, id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return notFound(id)
	}
	m.jobs = append(m.jobs[:i], m.jobs[i+1:]...)
	return nil
}

func (m *MemoryStore) ArchiveJob(ctx context.Context, id string) (*models.Job, error) {
	if err := m.begin(OpArchive, id); err != nil {
		return nil, err
	}
	return m.mutate(id, func(j *models.Job, now time.Time) {
		j.IsArchived = true
		j.UpdatedAt = now
	})
}

func (m *MemoryStore) ScheduleFollowUp(ctx context.Context, id string, date time.Time) (*models.TimelineEntry, error) {
	if err := m.begin(OpFollowUp, id); err != nil {
		return nil, err
	}
	var entry models.TimelineEntry
	_, err := m.mutate(id, func(j *models.Job, now time.Time) {
		entry = models.TimelineEntry{
			ID:    uuid.NewString(),
			Date:  date.UTC(),
			Type:  models.TimelineFollowUp,
			Title: "Follow-up scheduled",
		}
		d := date.UTC()
		j.FollowUpDate = &d
		j.Timeline = append(j.Timeline, entry)
		j.UpdatedAt = now
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (m *MemoryStore) mutate(id string, fn func(*models.Job, time.Time)) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, notFound(id)
	}
	fn(&m.jobs[i], m.Now().UTC())
	out := m.jobs[i].Clone()
	return &out, nil
}
