// Package jobs tracks the status of sync jobs. Records are created by the
// sync coordinator, mutated only by the pipeline that owns them and read as
// snapshots by the API.
package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned when no job exists for an id
var ErrJobNotFound = errors.New("job not found")

// Status is the lifecycle state of a sync job
type Status string

const (
	// StatusPending is reserved for jobs that are accepted but not started
	StatusPending Status = "pending"
	// StatusInProgress is the state of a running job
	StatusInProgress Status = "in_progress"
	// StatusCompleted is the terminal success state
	StatusCompleted Status = "completed"
	// StatusFailed is the terminal failure state
	StatusFailed Status = "failed"
)

// IsTerminal reports whether no further transitions are allowed from s
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Kind identifies what a sync job synchronizes
type Kind string

const (
	// KindNumberTypes syncs per-country number type availability
	KindNumberTypes Kind = "number_types"
	// KindRegulations syncs regulatory compliance records
	KindRegulations Kind = "regulations"
)

// Valid reports whether k is a known job kind
func (k Kind) Valid() bool {
	return k == KindNumberTypes || k == KindRegulations
}

// SyncJob is a snapshot of one sync job
type SyncJob struct {
	ID          string     `json:"job_id"`
	Kind        Kind       `json:"kind"`
	Status      Status     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Processed   int        `json:"countries_processed"`
	Total       *int       `json:"countries_total"`
	Error       string     `json:"error,omitempty"`
}

// Tracker is the registry of sync jobs.
// Mutations of a job in a terminal state are silently ignored.
//
//go:generate mockgen -destination=mocks/mock_tracker.go -package=mocks -source=tracker.go Tracker
type Tracker interface {
	// Create registers a new in_progress job with a fresh id
	Create(ctx context.Context, kind Kind) (SyncJob, error)

	// MarkTotal records how many countries the job will process
	MarkTotal(ctx context.Context, id string, total int) error

	// IncrementProcessed adds n to the processed counter
	IncrementProcessed(ctx context.Context, id string, n int) error

	// Complete moves the job to completed
	Complete(ctx context.Context, id string) error

	// Fail moves the job to failed with the given message
	Fail(ctx context.Context, id string, message string) error

	// Get returns a snapshot of the job or ErrJobNotFound
	Get(ctx context.Context, id string) (SyncJob, error)

	// List returns up to limit jobs, most recently started first
	List(ctx context.Context, limit int) ([]SyncJob, error)
}
