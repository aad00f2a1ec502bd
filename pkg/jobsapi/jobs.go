package jobsapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/garnizeh/jobtrail/pkg/models"
)

// ListJobs calls GET /jobs.
func (c *Client) ListJobs(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	if err := c.do(ctx, http.MethodGet, nil, &jobs, "jobs"); err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	return jobs, nil
}

func (c *Client) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := c.do(ctx, http.MethodGet, nil, &job, "jobs", url.PathEscape(id)); err != nil {
		return nil, err
	}
	return &job, nil
}

// CreateJob calls POST /jobs. The payload is checked against the create
// schema first and the request is never retried.
func (c *Client) CreateJob(ctx context.Context, p models.JobPatch) (*models.Job, error) {
	if err := ValidateCreate(ctx, p); err != nil {
		return nil, err
	}
	var job models.Job
	if err := c.do(ctx, http.MethodPost, p, &job, "jobs"); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) UpdateJob(ctx context.Context, id string, p models.JobPatch) (*models.Job, error) {
	if err := ValidatePatch(ctx, p); err != nil {
		return nil, err
	}
	var job models.Job
	if err := c.do(ctx, http.MethodPatch, p, &job, "jobs", url.PathEscape(id)); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, nil, nil, "jobs", url.PathEscape(id))
}

// ArchiveJob is a PATCH setting isArchived.
func (c *Client) ArchiveJob(ctx context.Context, id string) (*models.Job, error) {
	return c.UpdateJob(ctx, id, models.JobPatch{IsArchived: models.Ptr(true)})
}

type followUpRequest struct {
	Date time.Time `json:"date"`
}

// ScheduleFollowUp calls POST /jobs/{id}/follow-up.
func (c *Client) ScheduleFollowUp(ctx context.Context, id string, date time.Time) (*models.TimelineEntry, error) {
	var entry models.TimelineEntry
	if err := c.do(ctx, http.MethodPost, followUpRequest{Date: date.UTC()}, &entry, "jobs", url.PathEscape(id), "follow-up"); err != nil {
		return nil, err
	}
	return &entry, nil
}
