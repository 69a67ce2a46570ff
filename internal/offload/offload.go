// Package offload runs potentially blocking work (page fetches) off the calling
// goroutine and waits for it, so a caller's own loop is never the one blocked.
package offload

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many offloaded operations can run at once.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool creates a pool running at most size operations at a time, size < 1 means 1.
func NewPool(size int) Pool {
	if size < 1 {
		size = 1
	}
	return Pool{sem: semaphore.NewWeighted(int64(size))}
}

type result[T any] struct {
	value T
	err   error
}

// Run executes fn on its own goroutine once the pool has room and waits for it to finish.
//
// If ctx is done first, Run returns ctx.Err(), fn keeps its context and is expected to
// notice the cancellation itself.
func Run[T any](ctx context.Context, pool Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := pool.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}

	done := make(chan result[T], 1)
	go func() {
		defer pool.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- result[T]{err: fmt.Errorf("offloaded operation panicked: %v", r)}
			}
		}()
		value, err := fn(ctx)
		done <- result[T]{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-done:
		return r.value, r.err
	}
}
