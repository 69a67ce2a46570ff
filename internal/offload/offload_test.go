package offload

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestRunReturnsResult(t *testing.T) {
	pool := NewPool(2)
	value, err := Run(context.Background(), pool, func(context.Context) (string, error) {
		return "page", nil
	})
	require.NoError(t, err)
	require.Equal(t, "page", value)

	_, err = Run(context.Background(), pool, func(context.Context) (int, error) {
		return 0, errors.New("fetch failed")
	})
	require.EqualError(t, err, "fetch failed")
}

func TestRunRecoversPanics(t *testing.T) {
	_, err := Run(context.Background(), NewPool(1), func(context.Context) (int, error) {
		panic("browser crashed")
	})
	require.ErrorContains(t, err, "browser crashed")
}

func TestRunBoundsConcurrency(t *testing.T) {
	pool := NewPool(2)
	var running, peak int64

	group, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 8; i++ {
		group.Go(func() error {
			_, err := Run(ctx, pool, func(context.Context) (struct{}, error) {
				n := atomic.AddInt64(&running, 1)
				for {
					old := atomic.LoadInt64(&peak)
					if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt64(&running, -1)
				return struct{}{}, nil
			})
			return err
		})
	}
	require.NoError(t, group.Wait())
	require.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}

func TestRunHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	defer close(release)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := Run(ctx, NewPool(1), func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
