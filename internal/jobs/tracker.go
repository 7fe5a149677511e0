// Package jobs manages the scrape job lifecycle.
package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
)

// Tracker creates scrape job records and drives their status transitions.
// Jobs move pending -> processing -> completed|failed; terminal states accept
// no further transitions.
type Tracker struct {
	store  catalog.JobStore
	clock  catalog.Clock
	ids    catalog.IDGenerator
	logger *zap.Logger
}

// NewTracker constructs a Tracker.
func NewTracker(store catalog.JobStore, clock catalog.Clock, ids catalog.IDGenerator, logger *zap.Logger) *Tracker {
	return &Tracker{store: store, clock: clock, ids: ids, logger: logger}
}

// Create persists a new pending job for the target and returns it.
func (t *Tracker) Create(ctx context.Context, targetURL string, targetType catalog.TargetType) (catalog.ScrapeJob, error) {
	id, err := t.ids.NewID()
	if err != nil {
		return catalog.ScrapeJob{}, fmt.Errorf("generate job id: %w", err)
	}
	job := catalog.ScrapeJob{
		ID:         id,
		TargetURL:  targetURL,
		TargetType: targetType,
		Status:     catalog.JobStatusPending,
		CreatedAt:  t.clock.Now(),
	}
	if err := t.store.Create(ctx, job); err != nil {
		return catalog.ScrapeJob{}, fmt.Errorf("create job: %w", err)
	}
	t.logger.Info("job created",
		zap.String("job_id", job.ID),
		zap.String("target_type", string(targetType)),
		zap.String("target_url", targetURL),
	)
	return job, nil
}

// Transition moves a job to the given status. It stamps StartedAt when the
// job enters processing and FinishedAt when it reaches a terminal status.
// errorLog is recorded only on failure. Transitions out of a terminal status
// are rejected.
func (t *Tracker) Transition(ctx context.Context, id string, status catalog.JobStatus, errorLog string) error {
	job, err := t.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load job %s: %w", id, err)
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("job %s already %s", id, job.Status)
	}

	var startedAt, finishedAt *time.Time
	now := t.clock.Now()
	if status == catalog.JobStatusProcessing && job.StartedAt == nil {
		startedAt = &now
	}
	if status.IsTerminal() {
		finishedAt = &now
	}
	if status != catalog.JobStatusFailed {
		errorLog = ""
	}

	if err := t.store.UpdateStatus(ctx, id, status, errorLog, startedAt, finishedAt); err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	t.logger.Info("job transitioned",
		zap.String("job_id", id),
		zap.String("status", string(status)),
	)
	return nil
}

// SetMetadata replaces the job's metadata payload.
func (t *Tracker) SetMetadata(ctx context.Context, id string, meta catalog.JobMetadata) error {
	if err := t.store.UpdateMetadata(ctx, id, meta); err != nil {
		return fmt.Errorf("update job %s metadata: %w", id, err)
	}
	return nil
}
