// internal/api/ratelimit.go
package api

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedSources caps the limiter map so an address scan cannot grow it
// without bound; hitting the cap resets all buckets.
const maxTrackedSources = 10000

// RateLimiter keeps one token bucket per event source.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perSec   rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing perSec requests per second per
// source with the given burst.
func NewRateLimiter(perSec float64, burst int) *RateLimiter {
	if perSec <= 0 {
		perSec = 50
	}
	if burst <= 0 {
		burst = 100
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		perSec:   rate.Limit(perSec),
		burst:    burst,
	}
}

// Allow reports whether source may proceed.
func (rl *RateLimiter) Allow(source string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.limiters) >= maxTrackedSources {
		rl.limiters = make(map[string]*rate.Limiter)
	}

	limiter, ok := rl.limiters[source]
	if !ok {
		limiter = rate.NewLimiter(rl.perSec, rl.burst)
		rl.limiters[source] = limiter
	}
	return limiter.Allow()
}
