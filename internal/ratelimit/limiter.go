// Package ratelimit spaces outbound calls per external data source.
//
// Each source key has its own minimum interval. Waiters on the same key are
// granted strictly in arrival order and consecutive grants are never closer
// than the interval. Analyses and scans share one Limiter so that the spacing
// holds across the whole process.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"banjocap/internal/observability"
)

// Well-known source keys.
const (
	SourceExplorer    = "explorer"
	SourceDexScreener = "dexscreener"
)

// DefaultInterval is used for keys without an explicit interval.
const DefaultInterval = 200 * time.Millisecond

// Options configures a Limiter.
type Options struct {
	DefaultInterval time.Duration            // default: DefaultInterval
	Intervals       map[string]time.Duration // per-source overrides
}

// Limiter hands out spaced grants per source key. Safe for concurrent use.
type Limiter struct {
	defaultInterval time.Duration
	intervals       map[string]time.Duration

	mu      sync.Mutex
	sources map[string]*source
}

type source struct {
	interval time.Duration
	// turn holds a single token; receivers queue on it in arrival order.
	turn  chan struct{}
	pacer *rate.Limiter
	last  time.Time // guarded by turn
}

// New creates a Limiter.
func New(opts Options) *Limiter {
	if opts.DefaultInterval <= 0 {
		opts.DefaultInterval = DefaultInterval
	}
	intervals := make(map[string]time.Duration, len(opts.Intervals))
	for k, v := range opts.Intervals {
		if v > 0 {
			intervals[k] = v
		}
	}
	return &Limiter{
		defaultInterval: opts.DefaultInterval,
		intervals:       intervals,
		sources:         make(map[string]*source),
	}
}

// Interval returns the minimum spacing applied to key.
func (l *Limiter) Interval(key string) time.Duration {
	if d, ok := l.intervals[key]; ok {
		return d
	}
	return l.defaultInterval
}

func (l *Limiter) source(key string) *source {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sources[key]
	if !ok {
		interval := l.Interval(key)
		s = &source{
			interval: interval,
			turn:     make(chan struct{}, 1),
			pacer:    rate.NewLimiter(rate.Every(interval), 1),
		}
		s.turn <- struct{}{}
		l.sources[key] = s
	}
	return s
}

// Acquire blocks until key may be called again and returns the grant time.
// The only failure is ctx ending before the grant, in which case no grant is recorded.
func (l *Limiter) Acquire(ctx context.Context, key string) (time.Time, error) {
	s := l.source(key)
	start := time.Now()

	select {
	case <-s.turn:
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	}
	defer func() { s.turn <- struct{}{} }()

	if err := s.pacer.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return time.Time{}, ctx.Err()
		}
		return time.Time{}, fmt.Errorf("ratelimit %s: %w", key, err)
	}

	// The token bucket works on its own reservation clock; enforce the gap
	// against the last recorded grant as well.
	if !s.last.IsZero() {
		if wait := s.interval - time.Since(s.last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return time.Time{}, ctx.Err()
			}
		}
	}

	granted := time.Now()
	s.last = granted
	observability.RecordRateLimitWait(key, granted.Sub(start).Seconds())
	return granted, nil
}
