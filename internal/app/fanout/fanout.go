// Package fanout runs one function across a slice of items on a small
// worker pool, keeping results in input order. The service layer uses it to
// push a task event to several notification channels at once.
package fanout

import (
	"context"
	"sync"
)

// Result pairs an item's output with its error; exactly one of the two is
// meaningful.
type Result[R any] struct {
	Value R
	Err   error
}

// Run applies fn to every item with at most maxWorkers in flight, returning
// one Result per item in input order. Items still queued when ctx is
// canceled are marked with ctx.Err() without calling fn; items already
// dispatched run to completion, with fn left to honor ctx itself. Run
// returns after the pool drains. Empty input yields an empty non-nil slice.
// maxWorkers must be at least 1.
func Run[T, R any](ctx context.Context, maxWorkers int, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}
	if maxWorkers > len(items) {
		maxWorkers = len(items)
	}

	queue := make(chan int)

	var wg sync.WaitGroup
	wg.Add(maxWorkers)
	for range maxWorkers {
		go func() {
			defer wg.Done()
			for i := range queue {
				val, err := fn(ctx, items[i])
				results[i] = Result[R]{Value: val, Err: err}
			}
		}()
	}

	for i := range items {
		select {
		case queue <- i:
		case <-ctx.Done():
			results[i] = Result[R]{Err: ctx.Err()}
		}
	}
	close(queue)

	wg.Wait()
	return results
}
