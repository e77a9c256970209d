// FILE: src/internal/filter/ratelimit.go
package filter

import (
	"sync"

	"pulse/src/internal/config"
	"pulse/src/internal/core"

	"golang.org/x/time/rate"
)

// RateLimiter caps accepted signals per category with a token bucket each
type RateLimiter struct {
	limiters sync.Map // map[core.Category]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewRateLimiter returns nil when the configuration disables rate limiting
func NewRateLimiter(cfg *config.RateLimitConfig) *RateLimiter {
	if cfg == nil || cfg.Rate <= 0 {
		return nil
	}

	burst := int(cfg.Burst)
	if burst <= 0 {
		burst = max(int(cfg.Rate), 1)
	}

	return &RateLimiter{
		limit: rate.Limit(cfg.Rate),
		burst: burst,
	}
}

// Allow consumes one token of the category's bucket
func (rl *RateLimiter) Allow(category core.Category) bool {
	return rl.getLimiter(category).Allow()
}

func (rl *RateLimiter) getLimiter(category core.Category) *rate.Limiter {
	if val, ok := rl.limiters.Load(category); ok {
		return val.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	actual, _ := rl.limiters.LoadOrStore(category, limiter)
	return actual.(*rate.Limiter)
}
