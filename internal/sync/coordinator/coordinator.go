package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stacklok/phone-registry-server/internal/jobs"
	pkgsync "github.com/stacklok/phone-registry-server/internal/sync"
	"github.com/stacklok/phone-registry-server/internal/telemetry"
)

// ErrStopped is returned when a job is triggered on a stopped coordinator
var ErrStopped = errors.New("sync coordinator is stopped")

// ErrAlreadyStarted is returned by a second call to Start
var ErrAlreadyStarted = errors.New("sync coordinator already started")

// scheduledKinds are triggered, in order, by every scheduled or startup run
var scheduledKinds = []jobs.Kind{jobs.KindNumberTypes, jobs.KindRegulations}

// Coordinator hands sync jobs off to supervised background workers and runs
// the optional periodic schedule
//
//go:generate mockgen -destination=mocks/mock_coordinator.go -package=mocks -source=coordinator.go Coordinator
type Coordinator interface {
	// Start runs the cron schedule and the startup sync, if configured.
	// Blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop cancels running jobs and waits for their workers to finalize them
	Stop() error

	// Trigger creates a job and returns its snapshot right away. The job runs
	// on the coordinator's context, not on ctx.
	Trigger(ctx context.Context, kind jobs.Kind) (jobs.SyncJob, error)

	// Run creates a job and executes it on ctx in the calling goroutine,
	// returning the final snapshot
	Run(ctx context.Context, kind jobs.Kind) (jobs.SyncJob, error)
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager pkgsync.Manager
	tracker jobs.Tracker

	schedule     string
	runOnStartup bool

	// Lifecycle management
	baseCtx    context.Context
	cancelFunc context.CancelFunc
	mu         sync.Mutex
	started    bool
	stopped    bool
	done       chan struct{}
	workers    sync.WaitGroup

	// Metrics
	syncMetrics *telemetry.SyncMetrics
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// WithSchedule sets the cron spec that triggers every sync kind
func WithSchedule(spec string) Option {
	return func(c *defaultCoordinator) {
		c.schedule = spec
	}
}

// WithRunOnStartup triggers every sync kind once when Start is called
func WithRunOnStartup(enabled bool) Option {
	return func(c *defaultCoordinator) {
		c.runOnStartup = enabled
	}
}

// New creates a new coordinator with injected dependencies
func New(manager pkgsync.Manager, tracker jobs.Tracker, opts ...Option) Coordinator {
	baseCtx, cancel := context.WithCancel(context.Background())
	c := &defaultCoordinator{
		manager:    manager,
		tracker:    tracker,
		baseCtx:    baseCtx,
		cancelFunc: cancel,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start runs the schedule until ctx is cancelled or the coordinator is stopped
func (c *defaultCoordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return ErrStopped
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	defer func() {
		close(done)
		slog.Info("Background sync coordinator shutting down")
	}()

	var scheduler *cron.Cron
	if c.schedule != "" {
		scheduler = cron.New(cron.WithLogger(cronLogger{}))
		if _, err := scheduler.AddFunc(c.schedule, c.triggerAll); err != nil {
			return fmt.Errorf("invalid sync schedule %q: %w", c.schedule, err)
		}
		scheduler.Start()
		slog.Info("Periodic sync scheduled", "schedule", c.schedule)
	}

	slog.Info("Starting background sync coordinator", "run_on_startup", c.runOnStartup)
	if c.runOnStartup {
		c.triggerAll()
	}

	select {
	case <-ctx.Done():
	case <-c.baseCtx.Done():
	}

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	slog.Info("Sync coordinator stopping")
	return nil
}

// Stop cancels the coordinator context and waits for every worker
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	done := c.done
	c.mu.Unlock()

	slog.Info("Stopping sync coordinator")
	c.cancelFunc()
	if done != nil {
		<-done
	}
	c.workers.Wait()
	return nil
}

// Trigger creates a job and hands it to a background worker
func (c *defaultCoordinator) Trigger(ctx context.Context, kind jobs.Kind) (jobs.SyncJob, error) {
	if !kind.Valid() {
		return jobs.SyncJob{}, fmt.Errorf("%w: %q", pkgsync.ErrUnknownKind, kind)
	}

	// Register the worker before releasing the lock so Stop cannot miss it
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return jobs.SyncJob{}, ErrStopped
	}
	c.workers.Add(1)
	c.mu.Unlock()

	job, err := c.tracker.Create(ctx, kind)
	if err != nil {
		c.workers.Done()
		return jobs.SyncJob{}, fmt.Errorf("failed to create sync job: %w", err)
	}

	go func() {
		defer c.workers.Done()
		c.performSync(c.baseCtx, job)
	}()

	slog.InfoContext(ctx, "Sync job accepted", "job_id", job.ID, "kind", kind)
	return job, nil
}

// Run executes a job in the foreground
func (c *defaultCoordinator) Run(ctx context.Context, kind jobs.Kind) (jobs.SyncJob, error) {
	if !kind.Valid() {
		return jobs.SyncJob{}, fmt.Errorf("%w: %q", pkgsync.ErrUnknownKind, kind)
	}

	job, err := c.tracker.Create(ctx, kind)
	if err != nil {
		return jobs.SyncJob{}, fmt.Errorf("failed to create sync job: %w", err)
	}

	c.performSync(ctx, job)

	return c.tracker.Get(context.WithoutCancel(ctx), job.ID)
}

func (c *defaultCoordinator) triggerAll() {
	for _, kind := range scheduledKinds {
		if _, err := c.Trigger(c.baseCtx, kind); err != nil {
			slog.Error("Failed to trigger scheduled sync", "kind", kind, "error", err)
		}
	}
}

// performSync executes the pipeline for job and finalizes it
func (c *defaultCoordinator) performSync(ctx context.Context, job jobs.SyncJob) {
	startTime := time.Now()
	// Tracker writes must survive cancellation of the job context
	finalCtx := context.WithoutCancel(ctx)

	// Set up the final status update in a defer block to ensure that the job
	// always ends in a terminal state. The default message covers a panic or
	// an early return.
	failure := fmt.Sprintf("unexpected failure while syncing %s", job.Kind)
	completed := false
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Sync job panicked",
				"job_id", job.ID,
				"kind", job.Kind,
				"panic", r,
				"stack", string(debug.Stack()))
		}
		if completed {
			return
		}
		if err := c.tracker.Fail(finalCtx, job.ID, failure); err != nil {
			slog.Error("Error marking sync job failed", "job_id", job.ID, "error", err)
		}
		c.syncMetrics.RecordSyncDuration(finalCtx, string(job.Kind), time.Since(startTime), false)
	}()

	slog.Info("Starting sync operation", "job_id", job.ID, "kind", job.Kind)

	result, syncErr := c.manager.PerformSync(ctx, job.Kind, job.ID)
	if syncErr != nil {
		failure = syncErr.Message
		slog.Error("Sync failed",
			"job_id", job.ID,
			"kind", job.Kind,
			"stage", syncErr.Stage,
			"error", syncErr.Message)
		return
	}
	if err := ctx.Err(); err != nil {
		failure = fmt.Sprintf("sync of %s cancelled: %v", job.Kind, err)
		slog.Warn("Sync cancelled", "job_id", job.ID, "kind", job.Kind)
		return
	}

	if err := c.tracker.Complete(finalCtx, job.ID); err != nil {
		slog.Error("Error marking sync job completed", "job_id", job.ID, "error", err)
		return
	}
	completed = true

	syncDuration := time.Since(startTime)
	c.syncMetrics.RecordSyncDuration(finalCtx, string(job.Kind), syncDuration, true)
	slog.Info("Sync completed",
		"job_id", job.ID,
		"kind", job.Kind,
		"countries_total", result.CountriesTotal,
		"countries_processed", result.CountriesProcessed,
		"records_written", result.RecordsWritten,
		"duration", syncDuration.String())
}

// cronLogger routes scheduler logs through slog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(msg, append(keysAndValues, "error", err)...)
}
