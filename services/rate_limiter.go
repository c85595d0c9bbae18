package services

import (
	"context"
	"sync"
	"time"
)

// RateLimiter decides whether a client address may submit another booking.
type RateLimiter interface {
	Allow(key string) bool
}

type rateLimitEntry struct {
	count   int
	resetAt time.Time
}

// FixedWindowLimiter allows Max requests per key in a window opened by the
// key's first request. State is local to the process, so behind several
// instances the effective limit is Max per instance.
type FixedWindowLimiter struct {
	Max    int
	Window time.Duration

	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	now     func() time.Time
}

func NewFixedWindowLimiter(max int, window time.Duration) *FixedWindowLimiter {
	return NewFixedWindowLimiterWithClock(max, window, time.Now)
}

func NewFixedWindowLimiterWithClock(max int, window time.Duration, now func() time.Time) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		Max:     max,
		Window:  window,
		entries: make(map[string]*rateLimitEntry),
		now:     now,
	}
}

func (l *FixedWindowLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || !now.Before(e.resetAt) {
		l.entries[key] = &rateLimitEntry{count: 1, resetAt: now.Add(l.Window)}
		return true
	}
	if e.count >= l.Max {
		return false
	}
	e.count++
	return true
}

// Sweep drops entries whose window has expired and returns how many were
// removed.
func (l *FixedWindowLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *FixedWindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Run sweeps every interval until ctx is done.
func (l *FixedWindowLimiter) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
