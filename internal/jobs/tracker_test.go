package jobs_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/stacklok/phone-registry-server/internal/jobs"
)

// trackerFactories runs every behavioural test against each implementation
func trackerFactories(t *testing.T) map[string]func(t *testing.T) jobs.Tracker {
	t.Helper()
	return map[string]func(t *testing.T) jobs.Tracker{
		"memory": func(_ *testing.T) jobs.Tracker {
			return jobs.NewMemoryTracker()
		},
		"redis": newRedisTracker,
	}
}

func newRedisTracker(t *testing.T) jobs.Tracker {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { tc.CleanupContainer(t, container) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := jobs.NewRedisClient(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return jobs.NewRedisTracker(client, jobs.WithKeyPrefix("test:"), jobs.WithTTL(time.Hour))
}

func TestTracker_Lifecycle(t *testing.T) {
	t.Parallel()

	for name, factory := range trackerFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			tracker := factory(t)

			job, err := tracker.Create(ctx, jobs.KindNumberTypes)
			require.NoError(t, err)
			assert.NotEmpty(t, job.ID)
			assert.Equal(t, jobs.StatusInProgress, job.Status)
			assert.Equal(t, jobs.KindNumberTypes, job.Kind)
			assert.Nil(t, job.Total)
			assert.Nil(t, job.CompletedAt)

			require.NoError(t, tracker.MarkTotal(ctx, job.ID, 5))
			require.NoError(t, tracker.IncrementProcessed(ctx, job.ID, 2))
			require.NoError(t, tracker.IncrementProcessed(ctx, job.ID, 1))

			got, err := tracker.Get(ctx, job.ID)
			require.NoError(t, err)
			require.NotNil(t, got.Total)
			assert.Equal(t, 5, *got.Total)
			assert.Equal(t, 3, got.Processed)
			assert.Equal(t, jobs.StatusInProgress, got.Status)

			require.NoError(t, tracker.Complete(ctx, job.ID))
			got, err = tracker.Get(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, jobs.StatusCompleted, got.Status)
			require.NotNil(t, got.CompletedAt)
			assert.False(t, got.CompletedAt.Before(got.StartedAt))
		})
	}
}

func TestTracker_TerminalStateIsFinal(t *testing.T) {
	t.Parallel()

	for name, factory := range trackerFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			tracker := factory(t)

			job, err := tracker.Create(ctx, jobs.KindRegulations)
			require.NoError(t, err)
			require.NoError(t, tracker.Fail(ctx, job.ID, "enumeration failed"))

			// later mutations are ignored without error
			require.NoError(t, tracker.Complete(ctx, job.ID))
			require.NoError(t, tracker.IncrementProcessed(ctx, job.ID, 10))
			require.NoError(t, tracker.MarkTotal(ctx, job.ID, 10))
			require.NoError(t, tracker.Fail(ctx, job.ID, "second failure"))

			got, err := tracker.Get(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, jobs.StatusFailed, got.Status)
			assert.Equal(t, "enumeration failed", got.Error)
			assert.Zero(t, got.Processed)
			assert.Nil(t, got.Total)
		})
	}
}

func TestTracker_UnknownJob(t *testing.T) {
	t.Parallel()

	for name, factory := range trackerFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			tracker := factory(t)

			_, err := tracker.Get(ctx, "does-not-exist")
			assert.ErrorIs(t, err, jobs.ErrJobNotFound)
			assert.ErrorIs(t, tracker.Complete(ctx, "does-not-exist"), jobs.ErrJobNotFound)
			assert.ErrorIs(t, tracker.IncrementProcessed(ctx, "does-not-exist", 1), jobs.ErrJobNotFound)

			_, err = tracker.Create(ctx, jobs.Kind("bogus"))
			assert.Error(t, err)
		})
	}
}

func TestTracker_ListNewestFirst(t *testing.T) {
	t.Parallel()

	for name, factory := range trackerFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			tracker := factory(t)

			var ids []string
			for range 4 {
				job, err := tracker.Create(ctx, jobs.KindNumberTypes)
				require.NoError(t, err)
				ids = append(ids, job.ID)
				time.Sleep(2 * time.Millisecond)
			}

			listed, err := tracker.List(ctx, 3)
			require.NoError(t, err)
			require.Len(t, listed, 3)
			assert.Equal(t, ids[3], listed[0].ID)
			assert.Equal(t, ids[2], listed[1].ID)
			assert.Equal(t, ids[1], listed[2].ID)

			all, err := tracker.List(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, all, 4)
		})
	}
}

func TestTracker_ConcurrentIncrements(t *testing.T) {
	t.Parallel()

	for name, factory := range trackerFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			tracker := factory(t)

			job, err := tracker.Create(ctx, jobs.KindNumberTypes)
			require.NoError(t, err)

			var wg sync.WaitGroup
			for range 50 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, tracker.IncrementProcessed(ctx, job.ID, 1))
				}()
			}
			wg.Wait()

			got, err := tracker.Get(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, 50, got.Processed)
		})
	}
}

func TestMemoryTracker_GetReturnsCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tracker := jobs.NewMemoryTracker()

	job, err := tracker.Create(ctx, jobs.KindNumberTypes)
	require.NoError(t, err)
	require.NoError(t, tracker.MarkTotal(ctx, job.ID, 3))

	snapshot, err := tracker.Get(ctx, job.ID)
	require.NoError(t, err)
	*snapshot.Total = 99
	snapshot.Processed = 42

	again, err := tracker.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *again.Total)
	assert.Zero(t, again.Processed)
}

func TestStatus_IsTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, jobs.StatusPending.IsTerminal())
	assert.False(t, jobs.StatusInProgress.IsTerminal())
	assert.True(t, jobs.StatusCompleted.IsTerminal())
	assert.True(t, jobs.StatusFailed.IsTerminal())
}
