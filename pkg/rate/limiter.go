// Package rate limits operations per key, such as transactions per fee payer.
package rate

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter limits operations based on a provided key
type Limiter interface {
	Allow(key string) bool
}

type localLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLocalLimiter returns an in memory limiter allowing limit operations per
// second for each key, with bursts of up to burst operations. A burst below
// one defaults to the limit rounded up.
func NewLocalLimiter(limit float64, burst int) Limiter {
	if burst < 1 {
		burst = int(limit)
		if float64(burst) < limit {
			burst++
		}
	}

	return &localLimiter{
		limit:    rate.Limit(limit),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow implements Limiter.Allow
func (l *localLimiter) Allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}

// NoLimiter never limits operations
type NoLimiter struct{}

// Allow implements Limiter.Allow
func (NoLimiter) Allow(_ string) bool {
	return true
}
