package jobs

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryTracker keeps jobs in process memory. Nothing is evicted and nothing
// survives a restart.
type MemoryTracker struct {
	mu   sync.RWMutex
	jobs map[string]*SyncJob
	now  func() time.Time
}

var _ Tracker = (*MemoryTracker)(nil)

// NewMemoryTracker creates an empty in-memory tracker
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		jobs: make(map[string]*SyncJob),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a new in_progress job
func (t *MemoryTracker) Create(_ context.Context, kind Kind) (SyncJob, error) {
	if !kind.Valid() {
		return SyncJob{}, fmt.Errorf("unknown job kind %q", kind)
	}

	job := &SyncJob{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusInProgress,
		StartedAt: t.now(),
	}

	t.mu.Lock()
	t.jobs[job.ID] = job
	t.mu.Unlock()

	return snapshot(job), nil
}

// MarkTotal records the number of countries to process
func (t *MemoryTracker) MarkTotal(_ context.Context, id string, total int) error {
	return t.mutate(id, func(j *SyncJob) {
		j.Total = &total
	})
}

// IncrementProcessed adds n to the processed counter
func (t *MemoryTracker) IncrementProcessed(_ context.Context, id string, n int) error {
	return t.mutate(id, func(j *SyncJob) {
		j.Processed += n
	})
}

// Complete marks the job completed
func (t *MemoryTracker) Complete(_ context.Context, id string) error {
	return t.mutate(id, func(j *SyncJob) {
		now := t.now()
		j.Status = StatusCompleted
		j.CompletedAt = &now
	})
}

// Fail marks the job failed
func (t *MemoryTracker) Fail(_ context.Context, id string, message string) error {
	return t.mutate(id, func(j *SyncJob) {
		now := t.now()
		j.Status = StatusFailed
		j.CompletedAt = &now
		j.Error = message
	})
}

// Get returns a copy of the job
func (t *MemoryTracker) Get(_ context.Context, id string) (SyncJob, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	job, ok := t.jobs[id]
	if !ok {
		return SyncJob{}, ErrJobNotFound
	}
	return snapshot(job), nil
}

// List returns up to limit jobs, newest first
func (t *MemoryTracker) List(_ context.Context, limit int) ([]SyncJob, error) {
	t.mu.RLock()
	all := make([]SyncJob, 0, len(t.jobs))
	for _, job := range t.jobs {
		all = append(all, snapshot(job))
	}
	t.mu.RUnlock()

	slices.SortFunc(all, func(a, b SyncJob) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (t *MemoryTracker) mutate(id string, fn func(*SyncJob)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status.IsTerminal() {
		return nil
	}
	fn(job)
	return nil
}

// snapshot copies a job so callers never share pointers with the store
func snapshot(j *SyncJob) SyncJob {
	c := *j
	if j.CompletedAt != nil {
		completed := *j.CompletedAt
		c.CompletedAt = &completed
	}
	if j.Total != nil {
		total := *j.Total
		c.Total = &total
	}
	return c
}
