// Package coordinator provides asynchronous execution and periodic scheduling
// of sync jobs.
//
// This package implements the orchestration layer on top of sync.Manager:
//
//   - Trigger creates a job in the jobs.Tracker and returns immediately.
//     The pipeline runs in a worker goroutine tracked by the coordinator.
//   - Run executes a job in the calling goroutine (used by the CLI).
//   - An optional robfig/cron schedule triggers every sync kind.
//   - Stop cancels the coordinator context and waits for every worker.
//
// # Architecture
//
// The coordinator separates concerns between:
//
//   - internal/sync: the pipeline (enumerate, fan out, upsert)
//   - internal/sync/coordinator: hand-off, finalization and scheduling
//   - cmd/phone-registry-api/app: process lifecycle (starts and stops the coordinator)
//
// # Usage Example
//
//	manager := sync.NewManager(client, writer, tracker)
//	coord := coordinator.New(manager, tracker,
//	    coordinator.WithSchedule("@every 24h"),
//	    coordinator.WithRunOnStartup(true),
//	)
//
//	go coord.Start(ctx)
//
//	job, err := coord.Trigger(ctx, jobs.KindNumberTypes)
//
//	// ... on shutdown
//	coord.Stop()
//
// # Job Finalization
//
// Every worker finalizes its job in a deferred block. A job is marked failed
// with "unexpected failure while syncing <kind>" unless the pipeline returned
// successfully; a pipeline error replaces that message with its own. Panics
// are recovered and logged. A job whose context was cancelled is failed even
// if the pipeline itself returned no error.
package coordinator
