// Package fanout runs one task per item under a concurrency ceiling and
// collects per-item outcomes. A failing item never cancels its siblings.
package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultLimit is the production concurrency ceiling
const DefaultLimit = 10

// Outcome is the result of one task
type Outcome[T, R any] struct {
	Item   T
	Result R
	Err    error
}

// Worker processes a single item
type Worker[T, R any] func(ctx context.Context, item T) (R, error)

// Run executes worker for every item with at most limit tasks in flight.
// Outcomes are returned in completion order. A panicking worker yields a
// failed outcome for its item. Run only stops admitting new items when ctx
// is cancelled; those items get the context error.
func Run[T, R any](ctx context.Context, items []T, limit int, worker Worker[T, R]) []Outcome[T, R] {
	if limit <= 0 {
		limit = DefaultLimit
	}

	sem := semaphore.NewWeighted(int64(limit))
	outcomes := make([]Outcome[T, R], 0, len(items))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(o Outcome[T, R]) {
		mu.Lock()
		outcomes = append(outcomes, o)
		mu.Unlock()
	}

	for _, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			record(Outcome[T, R]{Item: item, Err: err})
			continue
		}

		wg.Add(1)
		go func(item T) {
			defer wg.Done()
			defer sem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					slog.ErrorContext(ctx, "Fan-out task panicked",
						"panic", r,
						"stack", string(debug.Stack()))
					record(Outcome[T, R]{Item: item, Err: fmt.Errorf("task panicked: %v", r)})
				}
			}()

			result, err := worker(ctx, item)
			record(Outcome[T, R]{Item: item, Result: result, Err: err})
		}(item)
	}

	wg.Wait()
	return outcomes
}

// ForEach is Run reduced to successful results. Failed outcomes are logged
// at warn level and skipped.
func ForEach[T, R any](ctx context.Context, items []T, limit int, worker Worker[T, R]) []R {
	outcomes := Run(ctx, items, limit, worker)
	results := make([]R, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			slog.WarnContext(ctx, "Fan-out task failed", "item", o.Item, "error", o.Err)
			continue
		}
		results = append(results, o.Result)
	}
	return results
}

// Failed counts failed outcomes
func Failed[T, R any](outcomes []Outcome[T, R]) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
