package gateway

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a per-client request budget. An rpm of zero or
// less disables limiting.
type RateLimiter struct {
	rpm   int
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiter creates a limiter allowing rpm requests per minute with
// the given burst per client.
func NewRateLimiter(rpm, burst int) *RateLimiter {
	return &RateLimiter{
		rpm:      rpm,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Enabled reports whether the limiter enforces anything.
func (r *RateLimiter) Enabled() bool { return r.rpm > 0 }

// Allow reports whether the client identified by id may make a request.
func (r *RateLimiter) Allow(id string) bool {
	if !r.Enabled() {
		return true
	}

	r.mu.Lock()
	lim, ok := r.limiters[id]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(r.rpm)/60.0), r.burst)
		r.limiters[id] = lim
	}
	r.mu.Unlock()

	return lim.Allow()
}

// Forget drops the limiter state for a disconnected client.
func (r *RateLimiter) Forget(id string) {
	r.mu.Lock()
	delete(r.limiters, id)
	r.mu.Unlock()
}
