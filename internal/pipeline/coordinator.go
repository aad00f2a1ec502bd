// Package pipeline owns the local job collection and every mutation of it.
// Stage moves are applied optimistically and reconciled with the job store;
// other edits go to the store first and are mirrored locally on success.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/garnizeh/jobtrail/pkg/models"
	"github.com/garnizeh/jobtrail/pkg/repository"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrTransport wraps any job store failure other than an unknown id.
	ErrTransport = errors.New("job store request failed")
	// ErrStageConflict is returned when a move's From no longer matches the
	// job's local stage.
	ErrStageConflict = errors.New("job is not in the expected stage")
	ErrClosed        = errors.New("coordinator closed")

	ErrNotFound     = repository.ErrNotFound
	ErrInvalidStage = models.ErrInvalidStage
)

// MoveJobCommand asks to move JobID from stage From to stage To.
type MoveJobCommand struct {
	JobID string
	From  models.Stage
	To    models.Stage
}

func (c MoveJobCommand) Validate() error {
	if !c.From.Valid() {
		return fmt.Errorf("%w: from %q", ErrInvalidStage, c.From)
	}
	if !c.To.Valid() {
		return fmt.Errorf("%w: to %q", ErrInvalidStage, c.To)
	}
	return nil
}

// Result is the settled outcome of a move. Job is the local state after
// settlement and is zero when the job is unknown.
type Result struct {
	Command MoveJobCommand
	Job     models.Job
	Err     error
}

// Coordinator serializes all mutations of a job id, so a move and a direct
// edit of the same job never interleave. Operations on different ids run
// concurrently.
type Coordinator struct {
	store    *Store
	jobs     repository.JobStore
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	base   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	locks  map[string]*idLock
	wg     sync.WaitGroup

	// seq counts local writes; touched holds the seq of the last write per
	// id since the previous refresh committed.
	seq     uint64
	touched map[string]uint64

	refresh singleflight.Group
}

type idLock struct {
	ch   chan struct{}
	refs int
}

// NewCoordinator wires a coordinator. A nil notifier discards notifications, a
// nil logger uses slog.Default and a nil clock uses time.Now.
func NewCoordinator(store *Store, jobs repository.JobStore, notifier Notifier, logger *slog.Logger, clock func() time.Time) *Coordinator {
	if store == nil {
		store = NewStore()
	}
	if notifier == nil {
		notifier = Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = time.Now
	}
	base, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		store:    store,
		jobs:     jobs,
		notifier: notifier,
		logger:   logger,
		now:      clock,
		base:     base,
		cancel:   cancel,
		locks:    make(map[string]*idLock),
		touched:  make(map[string]uint64),
	}
}

// Store returns the local collection backing the coordinator.
func (c *Coordinator) Store() *Store { return c.store }

// Close stops accepting commands, cancels in-flight store requests and waits
// for them to finish. Requests settling after Close change no state and emit
// no notification. Close is idempotent.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return nil
}

// enter registers an operation on id and blocks until every earlier operation
// on the same id has finished. The returned release must be called exactly once.
func (c *Coordinator) enter(ctx context.Context, id string) (func(), error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.wg.Add(1)
	l, ok := c.locks[id]
	if !ok {
		l = &idLock{ch: make(chan struct{}, 1)}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	drop := func() {
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, id)
		}
		c.mu.Unlock()
		c.wg.Done()
	}

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		drop()
		return nil, ctx.Err()
	case <-c.base.Done():
		drop()
		return nil, ErrClosed
	}

	return func() {
		<-l.ch
		drop()
	}, nil
}

// scope derives a context that is also canceled by Close.
func (c *Coordinator) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// commit runs fn under the coordinator lock unless the coordinator is closed.
func (c *Coordinator) commit(fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	fn()
	return true
}

func (c *Coordinator) classify(op, id string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%s %s: %w", op, id, err)
	case errors.Is(err, context.Canceled) && c.base.Err() != nil:
		return fmt.Errorf("%s %s: %w", op, id, ErrClosed)
	default:
		return fmt.Errorf("%s %s: %w: %w", op, id, ErrTransport, err)
	}
}

// MoveJob performs a stage move and waits for it to settle.
func (c *Coordinator) MoveJob(ctx context.Context, cmd MoveJobCommand) (Result, error) {
	r := <-c.Dispatch(ctx, cmd)
	return r, r.Err
}

// Dispatch applies the optimistic stage change before returning and confirms
// it with the job store in the background. The channel yields exactly one
// Result and is then closed. On store failure the job is put back in
// cmd.From with its previous UpdatedAt.
func (c *Coordinator) Dispatch(ctx context.Context, cmd MoveJobCommand) <-chan Result {
	ch := make(chan Result, 1)
	done := func(r Result) <-chan Result {
		r.Command = cmd
		ch <- r
		close(ch)
		return ch
	}

	if err := cmd.Validate(); err != nil {
		return done(Result{Err: err})
	}
	if cmd.From == cmd.To {
		job, _ := c.store.Get(cmd.JobID)
		return done(Result{Job: job})
	}

	release, err := c.enter(ctx, cmd.JobID)
	if err != nil {
		return done(Result{Err: err})
	}

	var (
		prev    models.Job
		moved   models.Job
		stepErr error
	)
	if !c.commit(func() {
		cur, ok := c.store.Get(cmd.JobID)
		switch {
		case !ok:
			stepErr = fmt.Errorf("move %s: %w", cmd.JobID, ErrNotFound)
		case cur.Stage != cmd.From:
			stepErr = fmt.Errorf("move %s from %s: %w (current %s)", cmd.JobID, cmd.From, ErrStageConflict, cur.Stage)
		default:
			prev = cur
			moved, _ = c.store.update(cmd.JobID, func(j *models.Job) {
				j.Stage = cmd.To
				j.UpdatedAt = c.now().UTC()
			})
			c.touch(cmd.JobID)
		}
	}) {
		stepErr = ErrClosed
	}
	if stepErr != nil {
		release()
		if errors.Is(stepErr, ErrNotFound) {
			c.notifier.Notify(Notification{
				Level:   LevelWarning,
				Title:   "Job not found",
				Message: "This job no longer exists.",
				JobID:   cmd.JobID,
			})
		}
		return done(Result{Err: stepErr})
	}

	c.logger.Debug("stage move applied", slog.String("job_id", cmd.JobID), slog.String("from", string(cmd.From)), slog.String("to", string(cmd.To)))

	go func() {
		defer release()
		r := c.settle(ctx, cmd, prev, moved)
		r.Command = cmd
		ch <- r
		close(ch)
	}()
	return ch
}

func (c *Coordinator) settle(ctx context.Context, cmd MoveJobCommand, prev, moved models.Job) Result {
	ctx, cancel := c.scope(ctx)
	defer cancel()

	confirmed, err := c.jobs.UpdateJob(ctx, cmd.JobID, models.StagePatch(cmd.To))

	var (
		job  models.Job
		note Notification
	)
	applied := c.commit(func() {
		c.touch(cmd.JobID)
		if err != nil {
			job, _ = c.store.update(cmd.JobID, func(j *models.Job) {
				j.Stage = cmd.From
				j.UpdatedAt = prev.UpdatedAt
			})
			note = Notification{
				Level:   LevelError,
				Title:   "Update failed",
				Message: "Could not update job status. Please try again.",
				JobID:   cmd.JobID,
			}
			return
		}
		job, _ = c.store.update(cmd.JobID, func(j *models.Job) {
			if confirmed != nil && j.Stage == cmd.To && !confirmed.UpdatedAt.IsZero() {
				j.UpdatedAt = confirmed.UpdatedAt
			}
		})
		note = Notification{
			Level:   LevelSuccess,
			Title:   "Status updated",
			Message: fmt.Sprintf("%s moved from %s to %s", moved.Company, cmd.From.Label(), cmd.To.Label()),
			JobID:   cmd.JobID,
		}
	})
	if !applied {
		c.logger.Debug("stage move settled after close", slog.String("job_id", cmd.JobID))
		if err != nil {
			return Result{Err: errors.Join(ErrClosed, err)}
		}
		return Result{Err: ErrClosed}
	}

	c.notifier.Notify(note)
	if err != nil {
		c.logger.Warn("stage move rolled back", slog.String("job_id", cmd.JobID), slog.String("to", string(cmd.To)), slog.Any("err", err))
		return Result{Job: job, Err: c.classify("move", cmd.JobID, err)}
	}
	c.logger.Info("stage move confirmed", slog.String("job_id", cmd.JobID), slog.String("to", string(cmd.To)))
	return Result{Job: job}
}

// Refresh reloads the collection from the job store. Concurrent calls share
// one request. Jobs with an operation in flight, or written locally after the
// request went out, keep their local state.
func (c *Coordinator) Refresh(ctx context.Context) ([]models.Job, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	_, err, shared := c.refresh.Do("list", func() (any, error) {
		sctx, cancel := c.scope(ctx)
		defer cancel()
		c.mu.Lock()
		since := c.seq
		c.mu.Unlock()
		jobs, err := c.jobs.ListJobs(sctx)
		if err != nil {
			return nil, err
		}
		if !c.commit(func() {
			c.store.merge(jobs, func(id string) bool {
				_, busy := c.locks[id]
				return busy || c.touched[id] > since
			})
			clear(c.touched)
		}) {
			return nil, ErrClosed
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return nil, err
		}
		return nil, c.classify("list", "jobs", err)
	}
	c.logger.Debug("jobs refreshed", slog.Int("count", c.store.Len()), slog.Bool("shared", shared))
	return c.store.List(), nil
}

// touch records a local write to id. Callers hold c.mu.
func (c *Coordinator) touch(id string) {
	c.seq++
	c.touched[id] = c.seq
}

// do runs a store call for id under the per-id lock.
func (c *Coordinator) do(ctx context.Context, id string, fn func(context.Context) error) error {
	release, err := c.enter(ctx, id)
	if err != nil {
		return err
	}
	defer release()
	ctx, cancel := c.scope(ctx)
	defer cancel()
	return fn(ctx)
}

// Get fetches one job from the store and mirrors it locally.
func (c *Coordinator) Get(ctx context.Context, id string) (models.Job, error) {
	var out models.Job
	err := c.do(ctx, id, func(ctx context.Context) error {
		job, err := c.jobs.GetJob(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				c.commit(func() {
					c.store.Remove(id)
					c.touch(id)
				})
			}
			return c.classify("get", id, err)
		}
		out = *job
		if !c.commit(func() {
			c.store.Upsert(out)
			c.touch(out.ID)
		}) {
			return ErrClosed
		}
		return nil
	})
	return out, err
}

// Create adds a job. The store assigns id and timestamps.
func (c *Coordinator) Create(ctx context.Context, p models.JobPatch) (models.Job, error) {
	if err := p.ValidateCreate(); err != nil {
		return models.Job{}, err
	}
	var out models.Job
	// creates have no id yet, so they only serialize with each other
	err := c.do(ctx, "", func(ctx context.Context) error {
		job, err := c.jobs.CreateJob(ctx, p)
		if err != nil {
			return c.classify("create", "job", err)
		}
		out = *job
		if !c.commit(func() {
			c.store.Upsert(out)
			c.touch(out.ID)
		}) {
			return ErrClosed
		}
		c.logger.Info("job created", slog.String("job_id", out.ID))
		return nil
	})
	return out, err
}

// Update applies p through the store and replaces the local job with the
// store's version.
func (c *Coordinator) Update(ctx context.Context, id string, p models.JobPatch) (models.Job, error) {
	if err := p.Validate(); err != nil {
		return models.Job{}, err
	}
	return c.replaceWith(ctx, "update", id, func(ctx context.Context) (*models.Job, error) {
		return c.jobs.UpdateJob(ctx, id, p)
	})
}

func (c *Coordinator) Archive(ctx context.Context, id string) (models.Job, error) {
	return c.replaceWith(ctx, "archive", id, func(ctx context.Context) (*models.Job, error) {
		return c.jobs.ArchiveJob(ctx, id)
	})
}

func (c *Coordinator) replaceWith(ctx context.Context, op, id string, call func(context.Context) (*models.Job, error)) (models.Job, error) {
	var out models.Job
	err := c.do(ctx, id, func(ctx context.Context) error {
		job, err := call(ctx)
		if err != nil {
			return c.classify(op, id, err)
		}
		out = *job
		if !c.commit(func() {
			c.store.Upsert(out)
			c.touch(out.ID)
		}) {
			return ErrClosed
		}
		return nil
	})
	return out, err
}

// Delete removes a job from the store and then locally. It cannot be undone.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	return c.do(ctx, id, func(ctx context.Context) error {
		if err := c.jobs.DeleteJob(ctx, id); err != nil {
			return c.classify("delete", id, err)
		}
		if !c.commit(func() {
			c.store.Remove(id)
			c.touch(id)
		}) {
			return ErrClosed
		}
		c.logger.Info("job deleted", slog.String("job_id", id))
		return nil
	})
}

// ScheduleFollowUp records a follow-up for date and appends the store's
// timeline entry to the local job.
func (c *Coordinator) ScheduleFollowUp(ctx context.Context, id string, date time.Time) (models.TimelineEntry, error) {
	var out models.TimelineEntry
	err := c.do(ctx, id, func(ctx context.Context) error {
		entry, err := c.jobs.ScheduleFollowUp(ctx, id, date)
		if err != nil {
			return c.classify("follow-up", id, err)
		}
		out = *entry
		if !c.commit(func() {
			c.store.update(id, func(j *models.Job) {
				d := date.UTC()
				j.FollowUpDate = &d
				j.Timeline = append(j.Timeline, out)
				j.UpdatedAt = c.now().UTC()
			})
			c.touch(id)
		}) {
			return ErrClosed
		}
		return nil
	})
	return out, err
}
