package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garnizeh/jobtrail/pkg/models"
)

// SaveSnapshot replaces the stored snapshot with jobs, keeping their order.
// Jobs are stored as JSON documents; stage and archived are copied into
// columns so the snapshot can be inspected with plain SQL.
func (r *SQLiteRepo) SaveSnapshot(ctx context.Context, jobs []models.Job, at time.Time) error {
	err := r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_jobs`); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot_jobs (id, position, stage, archived, document, updated) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare snapshot insert: %w", err)
		}
		defer stmt.Close()

		for i, job := range jobs {
			doc, err := json.Marshal(job)
			if err != nil {
				return fmt.Errorf("encode job %s: %w", job.ID, err)
			}
			archived := 0
			if job.IsArchived {
				archived = 1
			}
			if _, err := stmt.ExecContext(ctx, job.ID, i, string(job.Stage), archived, string(doc), job.UpdatedAt.UTC().UnixMilli()); err != nil {
				return fmt.Errorf("insert job %s: %w", job.ID, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO snapshot_meta (id, taken_at, job_count) VALUES (1, ?, ?)
			ON CONFLICT(id) DO UPDATE SET taken_at = excluded.taken_at, job_count = excluded.job_count`,
			at.UTC().UnixNano(), len(jobs)); err != nil {
			return fmt.Errorf("write snapshot meta: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("sqlite: save snapshot failed", slog.Int("jobs", len(jobs)), slog.Any("err", err))
		return err
	}
	r.logger.Debug("sqlite: snapshot saved", slog.Int("jobs", len(jobs)), slog.Time("at", at))
	return nil
}

// LoadSnapshot returns the stored jobs in their saved order and the time the
// snapshot was taken. Without a snapshot it returns an empty slice and the
// zero time.
func (r *SQLiteRepo) LoadSnapshot(ctx context.Context) ([]models.Job, time.Time, error) {
	var takenAt int64
	err := r.conn.QueryRow(ctx, `SELECT taken_at FROM snapshot_meta WHERE id = 1`).Scan(&takenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.Job{}, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read snapshot meta: %w", err)
	}

	rows, err := r.conn.Query(ctx, `SELECT id, document FROM snapshot_jobs ORDER BY position`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	jobs := []models.Job{}
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan snapshot row: %w", err)
		}
		var job models.Job
		if err := json.Unmarshal([]byte(doc), &job); err != nil {
			return nil, time.Time{}, fmt.Errorf("decode job %s: %w", id, err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("iterate snapshot: %w", err)
	}
	return jobs, time.Unix(0, takenAt).UTC(), nil
}

// SnapshotCounts returns the number of non-archived snapshot jobs per stage.
func (r *SQLiteRepo) SnapshotCounts(ctx context.Context) (map[models.Stage]int, error) {
	rows, err := r.conn.Query(ctx, `SELECT stage, COUNT(1) FROM snapshot_jobs WHERE archived = 0 GROUP BY stage`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Stage]int)
	for rows.Next() {
		var stage string
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, fmt.Errorf("scan snapshot count: %w", err)
		}
		counts[models.Stage(stage)] = n
	}
	return counts, rows.Err()
}
