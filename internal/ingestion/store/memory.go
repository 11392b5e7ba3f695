package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/shandysiswandi/goweave/internal/ingestion/entity"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgerror"
)

// InMemoryStore keeps jobs for the life of the process.
type InMemoryStore struct {
	mu       sync.RWMutex
	jobs     map[string]entity.Job
	failures map[string][]entity.FailedRow
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		jobs:     make(map[string]entity.Job),
		failures: make(map[string][]entity.FailedRow),
	}
}

func (s *InMemoryStore) CreateJob(ctx context.Context, job entity.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return pkgerror.NewBusiness("job already exists", pkgerror.CodeConflict)
	}
	s.jobs[job.ID] = job

	return nil
}

func (s *InMemoryStore) UpdateJob(ctx context.Context, jobID string, fn func(job *entity.Job)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return pkgerror.ErrNotFound
	}
	fn(&job)
	s.jobs[jobID] = job

	return nil
}

func (s *InMemoryStore) AddFailure(ctx context.Context, jobID string, failure entity.FailedRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	failure.Row = maps.Clone(failure.Row)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[jobID]; !ok {
		return pkgerror.ErrNotFound
	}
	s.failures[jobID] = append(s.failures[jobID], failure)

	return nil
}

func (s *InMemoryStore) GetJob(ctx context.Context, jobID string) (entity.Job, error) {
	if err := ctx.Err(); err != nil {
		return entity.Job{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return entity.Job{}, pkgerror.ErrNotFound
	}
	return job, nil
}

// ListFailures returns one page of failures (pages start at 1), the total
// count and the job itself.
func (s *InMemoryStore) ListFailures(ctx context.Context, jobID string, page, pageSize int) ([]entity.FailedRow, int, entity.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, entity.Job{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, 0, entity.Job{}, pkgerror.ErrNotFound
	}

	all := s.failures[jobID]
	lo, hi := pageBounds(len(all), page, pageSize)

	return slices.Clone(all[lo:hi]), len(all), job, nil
}

// pageBounds clamps page (1-based) of size pageSize to [0, total]. Pages
// past the end are empty, however large page is.
func pageBounds(total, page, pageSize int) (int, int) {
	if page < 1 || pageSize < 1 {
		return total, total
	}
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	if page > pages {
		return total, total
	}
	lo := (page - 1) * pageSize
	return lo, min(lo+pageSize, total)
}
