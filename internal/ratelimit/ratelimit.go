// Package ratelimit implements the per-endpoint sliding-window throttle used
// by the guest access workflow. State is in-memory only: it resets on restart
// and is deliberately single-process (a multi-instance deployment would need
// a shared store instead).
package ratelimit

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Limiter tracks request timestamps per key inside a sliding window.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time

	// now is swappable in tests.
	now func() time.Time
}

func New() *Limiter {
	return &Limiter{
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow reports whether another request is admitted for key given a budget of
// max requests per window. Admitted requests are recorded; denied ones are
// not. max <= 0 disables limiting for the key.
func (l *Limiter) Allow(key string, max int, window time.Duration) bool {
	if max <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-window)

	bucket := l.buckets[key]
	keep := bucket[:0]
	for _, ts := range bucket {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}

	if len(keep) >= max {
		l.buckets[key] = keep
		log.WithFields(log.Fields{
			"key":    key,
			"count":  len(keep),
			"max":    max,
			"window": window.String(),
		}).Warn("rate limit hit")
		return false
	}

	l.buckets[key] = append(keep, now)
	return true
}

// Reset clears all recorded state.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets = make(map[string][]time.Time)
}
