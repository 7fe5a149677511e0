package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
)

// JobStore persists scrape job records in the scrape_jobs table. Metadata is
// stored as JSONB.
type JobStore struct {
	db querier
}

// NewJobStore constructs a store over an existing pool.
func NewJobStore(db querier) *JobStore {
	return &JobStore{db: db}
}

// Create inserts a new job row.
func (s *JobStore) Create(ctx context.Context, job catalog.ScrapeJob) error {
	metaJSON, err := json.Marshal(job.Metadata)
	if err != nil {
		return fmt.Errorf("marshal job metadata: %w", err)
	}
	_, err = s.db.Exec(ctx, `
INSERT INTO scrape_jobs (id, target_url, target_type, status, created_at, started_at, finished_at, error_log, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, job.TargetURL, string(job.TargetType), string(job.Status),
		job.CreatedAt, job.StartedAt, job.FinishedAt, job.ErrorLog, metaJSON)
	if err != nil {
		return fmt.Errorf("insert scrape job: %w", err)
	}
	return nil
}

// Get fetches a job by id.
func (s *JobStore) Get(ctx context.Context, id string) (catalog.ScrapeJob, error) {
	row := s.db.QueryRow(ctx, `
SELECT id, target_url, target_type, status, created_at, started_at, finished_at, error_log, metadata
FROM scrape_jobs WHERE id = $1`, id)
	return scanJob(row)
}

// List returns up to limit jobs, newest first.
func (s *JobStore) List(ctx context.Context, limit int) ([]catalog.ScrapeJob, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, target_url, target_type, status, created_at, started_at, finished_at, error_log, metadata
FROM scrape_jobs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list scrape jobs: %w", err)
	}
	defer rows.Close()

	var out []catalog.ScrapeJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scrape jobs: %w", err)
	}
	return out, nil
}

// UpdateStatus sets the job status along with its transition timestamps and
// error log. Nil timestamps leave the stored values untouched.
func (s *JobStore) UpdateStatus(ctx context.Context, id string, status catalog.JobStatus, errorLog string, startedAt, finishedAt *time.Time) error {
	tag, err := s.db.Exec(ctx, `
UPDATE scrape_jobs
SET status = $2,
    error_log = CASE WHEN $3 = '' THEN error_log ELSE $3 END,
    started_at = COALESCE($4, started_at),
    finished_at = COALESCE($5, finished_at)
WHERE id = $1`,
		id, string(status), errorLog, startedAt, finishedAt)
	if err != nil {
		return fmt.Errorf("update scrape job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// UpdateMetadata replaces the job's metadata payload.
func (s *JobStore) UpdateMetadata(ctx context.Context, id string, meta catalog.JobMetadata) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal job metadata: %w", err)
	}
	tag, err := s.db.Exec(ctx,
		"UPDATE scrape_jobs SET metadata = $2 WHERE id = $1", id, metaJSON)
	if err != nil {
		return fmt.Errorf("update scrape job metadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func scanJob(row pgx.Row) (catalog.ScrapeJob, error) {
	var (
		job      catalog.ScrapeJob
		target   string
		status   string
		metaJSON []byte
	)
	err := row.Scan(&job.ID, &job.TargetURL, &target, &status, &job.CreatedAt,
		&job.StartedAt, &job.FinishedAt, &job.ErrorLog, &metaJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.ScrapeJob{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.ScrapeJob{}, fmt.Errorf("scan scrape job: %w", err)
	}
	job.TargetType = catalog.TargetType(target)
	job.Status = catalog.JobStatus(status)
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &job.Metadata); err != nil {
			return catalog.ScrapeJob{}, fmt.Errorf("unmarshal job metadata: %w", err)
		}
	}
	return job, nil
}
