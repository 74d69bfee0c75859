package ratelimit

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_GapNeverBelowInterval(t *testing.T) {
	interval := 20 * time.Millisecond
	l := New(Options{DefaultInterval: interval})
	ctx := context.Background()

	var grants []time.Time
	for i := 0; i < 5; i++ {
		g, err := l.Acquire(ctx, SourceExplorer)
		require.NoError(t, err)
		grants = append(grants, g)
	}

	for i := 1; i < len(grants); i++ {
		assert.GreaterOrEqual(t, grants[i].Sub(grants[i-1]), interval, "gap %d", i)
	}
}

func TestLimiter_ConcurrentCallersKeepSpacing(t *testing.T) {
	interval := 10 * time.Millisecond
	l := New(Options{DefaultInterval: interval})
	ctx := context.Background()

	var (
		mu     sync.Mutex
		grants []time.Time
		wg     sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := l.Acquire(ctx, SourceDexScreener)
			assert.NoError(t, err)
			mu.Lock()
			grants = append(grants, g)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, grants, 8)
	sort.Slice(grants, func(i, j int) bool { return grants[i].Before(grants[j]) })
	for i := 1; i < len(grants); i++ {
		assert.GreaterOrEqual(t, grants[i].Sub(grants[i-1]), interval)
	}
}

func TestLimiter_FIFOOrder(t *testing.T) {
	l := New(Options{DefaultInterval: 15 * time.Millisecond})
	ctx := context.Background()

	// Occupy the key so the waiters below queue up.
	_, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := l.Acquire(ctx, "k")
			assert.NoError(t, err)
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
		}(i)
		// Give each goroutine time to enqueue before the next arrives.
		time.Sleep(2 * time.Millisecond)
	}
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestLimiter_IndependentKeys(t *testing.T) {
	l := New(Options{
		DefaultInterval: time.Second,
		Intervals:       map[string]time.Duration{SourceExplorer: time.Millisecond},
	})
	ctx := context.Background()

	_, err := l.Acquire(ctx, SourceDexScreener)
	require.NoError(t, err)

	start := time.Now()
	_, err = l.Acquire(ctx, SourceExplorer)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	assert.Equal(t, time.Millisecond, l.Interval(SourceExplorer))
	assert.Equal(t, time.Second, l.Interval("unknown"))
}

func TestLimiter_CancelledContext(t *testing.T) {
	l := New(Options{DefaultInterval: time.Hour})
	_, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(ctx, "k")
	require.Error(t, err)
}
