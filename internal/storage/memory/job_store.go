package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
)

// JobStore keeps scrape job records in a mutex-guarded map.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]catalog.ScrapeJob
}

// NewJobStore constructs an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]catalog.ScrapeJob)}
}

// Create stores a new job record.
func (s *JobStore) Create(_ context.Context, job catalog.ScrapeJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

// Get fetches a job by id.
func (s *JobStore) Get(_ context.Context, id string) (catalog.ScrapeJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return catalog.ScrapeJob{}, catalog.ErrNotFound
	}
	return job, nil
}

// List returns up to limit jobs, newest first.
func (s *JobStore) List(_ context.Context, limit int) ([]catalog.ScrapeJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.ScrapeJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// UpdateStatus sets the job status along with its transition timestamps and
// error log. Nil timestamps leave the stored values untouched.
func (s *JobStore) UpdateStatus(_ context.Context, id string, status catalog.JobStatus, errorLog string, startedAt, finishedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return catalog.ErrNotFound
	}
	job.Status = status
	if errorLog != "" {
		job.ErrorLog = errorLog
	}
	if startedAt != nil {
		job.StartedAt = startedAt
	}
	if finishedAt != nil {
		job.FinishedAt = finishedAt
	}
	s.jobs[id] = job
	return nil
}

// UpdateMetadata replaces the job's metadata payload.
func (s *JobStore) UpdateMetadata(_ context.Context, id string, meta catalog.JobMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return catalog.ErrNotFound
	}
	job.Metadata = meta
	s.jobs[id] = job
	return nil
}
