package repository

import (
	"context"
	"errors"
	"time"

	"github.com/garnizeh/jobtrail/pkg/models"
)

// Repository interfaces for the job store boundary. These are the public
// contracts consumers should depend on; concrete implementations live in
// pkg/jobsapi (REST), pkg/repository/mock (in-memory) and internal/ (snapshot).

// ErrNotFound is returned (possibly wrapped) when an operation references a job
// id the store does not know.
var ErrNotFound = errors.New("job not found")

// JobStore is the asynchronous store the tracker core reads from and confirms
// mutations against. Any returned error other than ErrNotFound is a transport
// failure from the caller's point of view.
type JobStore interface {
	ListJobs(ctx context.Context) ([]models.Job, error)
	GetJob(ctx context.Context, id string) (*models.Job, error)
	CreateJob(ctx context.Context, p models.JobPatch) (*models.Job, error)
	UpdateJob(ctx context.Context, id string, p models.JobPatch) (*models.Job, error)
	DeleteJob(ctx context.Context, id string) error
	ArchiveJob(ctx context.Context, id string) (*models.Job, error)
	ScheduleFollowUp(ctx context.Context, id string, date time.Time) (*models.TimelineEntry, error)
}

// SnapshotRepo keeps the last collection fetched from the JobStore so read-only
// views work offline.
type SnapshotRepo interface {
	SaveSnapshot(ctx context.Context, jobs []models.Job, at time.Time) error
	// LoadSnapshot returns an empty slice and the zero time when no snapshot exists.
	LoadSnapshot(ctx context.Context) ([]models.Job, time.Time, error)
}
