// board/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/Ftotnem/LIVEBOARD/shared/clock"
)

// Limiter decides whether one more request from key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter is a per-key sliding window kept in process memory.
type MemoryLimiter struct {
	mu     sync.Mutex
	rate   int
	window time.Duration
	clock  clock.Clock
	hits   map[string][]time.Time
}

// NewMemory allows rate requests per key in any window-long interval.
func NewMemory(rate int, window time.Duration, clk clock.Clock) *MemoryLimiter {
	if clk == nil {
		clk = clock.Real()
	}
	return &MemoryLimiter{
		rate:   rate,
		window: window,
		clock:  clk,
		hits:   make(map[string][]time.Time),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	cutoff := now.Add(-l.window)
	recent := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) >= l.rate {
		l.hits[key] = recent
		return false, nil
	}
	l.hits[key] = append(recent, now)
	return true, nil
}

// Sweep forgets keys with no hits inside the window.
func (l *MemoryLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.clock.Now().Add(-l.window)
	for key, hits := range l.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(l.hits, key)
		}
	}
}

// Keys reports how many callers are being tracked.
func (l *MemoryLimiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}
