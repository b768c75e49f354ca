package fanout_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/phone-registry-server/internal/fanout"
)

func TestRun_CollectsAllOutcomes(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	outcomes := fanout.Run(context.Background(), items, 3, func(_ context.Context, n int) (int, error) {
		if n%3 == 0 {
			return 0, fmt.Errorf("item %d failed", n)
		}
		return n * 10, nil
	})

	require.Len(t, outcomes, len(items))
	assert.Equal(t, 2, fanout.Failed(outcomes))

	var results []int
	for _, o := range outcomes {
		if o.Err == nil {
			results = append(results, o.Result)
		}
	}
	sort.Ints(results)
	assert.Equal(t, []int{10, 20, 40, 50, 70, 80}, results)
}

func TestForEach_SkipsFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		items  int
		failAt map[int]bool
	}{
		{name: "no failures", items: 25, failAt: map[int]bool{}},
		{name: "some failures", items: 25, failAt: map[int]bool{0: true, 7: true, 24: true}},
		{name: "all failures", items: 4, failAt: map[int]bool{0: true, 1: true, 2: true, 3: true}},
		{name: "empty input", items: 0, failAt: map[int]bool{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			items := make([]int, tt.items)
			for i := range items {
				items[i] = i
			}
			results := fanout.ForEach(context.Background(), items, fanout.DefaultLimit, func(_ context.Context, n int) (int, error) {
				if tt.failAt[n] {
					return 0, errors.New("boom")
				}
				return n, nil
			})
			assert.Len(t, results, tt.items-len(tt.failAt))
		})
	}
}

func TestRun_RespectsLimit(t *testing.T) {
	t.Parallel()

	const limit = 4
	var inFlight, peak atomic.Int32

	items := make([]int, 40)
	fanout.Run(context.Background(), items, limit, func(_ context.Context, _ int) (struct{}, error) {
		current := inFlight.Add(1)
		for {
			old := peak.Load()
			if current <= old || peak.CompareAndSwap(old, current) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, peak.Load(), int32(limit))
	assert.Positive(t, peak.Load())
}

func TestRun_PanicBecomesFailedOutcome(t *testing.T) {
	t.Parallel()

	items := []string{"ok", "panic", "ok2"}
	outcomes := fanout.Run(context.Background(), items, 1, func(_ context.Context, s string) (string, error) {
		if s == "panic" {
			panic("worker exploded")
		}
		return s, nil
	})

	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		if o.Item == "panic" {
			require.Error(t, o.Err)
			assert.Contains(t, o.Err.Error(), "worker exploded")
		} else {
			assert.NoError(t, o.Err)
		}
	}
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	outcomes := fanout.Run(ctx, []int{1, 2, 3}, 2, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		return n, nil
	})

	require.Len(t, outcomes, 3)
	assert.Equal(t, 3, fanout.Failed(outcomes))
	assert.Zero(t, calls.Load())
}
