// Package ratelimit implements the client-side fixed-window rate limiter
// used by the service layer to throttle per-user actions.
//
// The algorithm is a fixed window: each identifier maps to a count and a
// window-reset timestamp. The count resets lazily on the first check after
// the window has elapsed, so no background sweep is required for correctness;
// Cleanup only bounds memory. Bursts across a window boundary are possible;
// this is an accepted property of fixed windows, not a sliding window or
// token bucket.
package ratelimit

import (
	"sync"
	"time"
)

// Default limiter parameters for user-initiated actions.
const (
	DefaultWindow      = time.Minute
	DefaultMaxRequests = 10
)

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window rate limiter keyed by identifier strings
// (typically "{action}-{userID}").
//
// Limiters are constructed per component with explicit parameters so tests
// can use isolated instances; there is no package-level shared state.
type Limiter struct {
	window time.Duration
	max    int
	now    func() time.Time // injectable clock for tests

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates a Limiter allowing max checks per identifier per window.
// Non-positive parameters fall back to the defaults.
func New(window time.Duration, max int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if max <= 0 {
		max = DefaultMaxRequests
	}
	return &Limiter{
		window:  window,
		max:     max,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Allow records one attempt for id. It reports whether the attempt is within
// the window's budget and, when denied, how long until a retry will succeed.
func (l *Limiter) Allow(id string) (allowed bool, retryAfter time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, exists := l.entries[id]
	if !exists || now.After(e.resetAt) {
		l.entries[id] = &entry{count: 1, resetAt: now.Add(l.window)}
		return true, 0
	}

	if e.count >= l.max {
		return false, e.resetAt.Sub(now)
	}

	e.count++
	return true, 0
}

// Cleanup drops expired entries. Correctness does not depend on it, since
// windows reset lazily in Allow; it only keeps the map from growing.
func (l *Limiter) Cleanup() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for id, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, id)
		}
	}
}

// StartJanitor runs Cleanup every interval until stop is closed.
func (l *Limiter) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}
