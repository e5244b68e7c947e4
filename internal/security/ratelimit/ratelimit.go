// Package ratelimit throttles abuse-prone operations with a per-key sliding
// window: at most maxRequests within the trailing window, evaluated
// continuously so there is no burst across bucket boundaries. Timestamps are
// pruned lazily on access. This is an abuse dampener, not a security
// boundary; a restarted process starts with a clean slate.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is the contract shared by the in-memory and Redis backends.
type Limiter interface {
	// IsAllowed records the attempt and returns true when key is under
	// quota. Denied attempts are not recorded.
	IsAllowed(key string) bool
	// Reset restores full quota for key.
	Reset(key string)
	// Clear drops all keys.
	Clear()
	// RemainingRequests returns how many attempts key has left.
	RemainingRequests(key string) int
	// ResetTime returns how long until the oldest recorded attempt ages
	// out, the earliest moment IsAllowed can return true again. Zero when
	// nothing is recorded.
	ResetTime(key string) time.Duration
}

// MemoryLimiter is the in-process sliding-window backend.
type MemoryLimiter struct {
	maxRequests int
	window      time.Duration
	clock       func() time.Time

	mu   sync.Mutex
	keys map[string][]time.Time
}

// Option adjusts a MemoryLimiter at construction.
type Option func(*MemoryLimiter)

// WithClock substitutes the time source. Tests use this to advance the
// window without sleeping.
func WithClock(clock func() time.Time) Option {
	return func(l *MemoryLimiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// New creates a limiter allowing maxRequests per sliding window.
func New(maxRequests int, window time.Duration, opts ...Option) *MemoryLimiter {
	l := &MemoryLimiter{
		maxRequests: maxRequests,
		window:      window,
		clock:       time.Now,
		keys:        make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsAllowed prunes timestamps older than the window, then admits the attempt
// only when the remaining count is under quota. The empty string is a valid
// degenerate key.
func (l *MemoryLimiter) IsAllowed(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	_, known := l.keys[key]
	pruned := l.pruneLocked(key, now)
	if len(pruned) >= l.maxRequests {
		return false
	}
	if !known {
		// A new subject is a cheap moment to evict keys whose attempts
		// have all aged out, keeping the registry bounded by the set of
		// recently active subjects.
		l.sweepLocked(now)
	}
	l.keys[key] = append(pruned, now)
	return true
}

// Reset restores full quota for key immediately.
func (l *MemoryLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.keys, key)
}

// Clear drops every key.
func (l *MemoryLimiter) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = make(map[string][]time.Time)
}

// RemainingRequests reports the unused quota for key. It prunes but never
// records an attempt.
func (l *MemoryLimiter) RemainingRequests(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	live := len(l.pruneLocked(key, l.clock()))
	if live >= l.maxRequests {
		return 0
	}
	return l.maxRequests - live
}

// ResetTime reports how long until the oldest live attempt leaves the
// window. Stored timestamps are chronological, so the oldest is the first.
func (l *MemoryLimiter) ResetTime(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	live := l.pruneLocked(key, now)
	if len(live) == 0 {
		return 0
	}
	remaining := live[0].Add(l.window).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// pruneLocked drops timestamps at or before the window start and writes the
// narrowed slice back. Keys left empty are removed so a long-lived process
// does not keep one entry per subject ever seen.
func (l *MemoryLimiter) pruneLocked(key string, now time.Time) []time.Time {
	windowStart := now.Add(-l.window)
	times := l.keys[key]
	pruned := times[:0]
	for _, t := range times {
		if t.After(windowStart) {
			pruned = append(pruned, t)
		}
	}
	if len(pruned) == 0 {
		delete(l.keys, key)
		return nil
	}
	l.keys[key] = pruned
	return pruned
}

// sweepLocked evicts every key whose newest attempt predates the window.
func (l *MemoryLimiter) sweepLocked(now time.Time) {
	windowStart := now.Add(-l.window)
	for key, times := range l.keys {
		if len(times) == 0 || !times[len(times)-1].After(windowStart) {
			delete(l.keys, key)
		}
	}
}
