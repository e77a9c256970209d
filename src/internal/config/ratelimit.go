// FILE: src/internal/config/ratelimit.go
package config

import "fmt"

// RateLimitConfig bounds how many signals of one category are accepted per second
type RateLimitConfig struct {
	// Signals per second per category. 0 disables the limiter.
	Rate float64 `toml:"rate"`

	// Maximum burst per category. Defaults to the Rate.
	Burst int64 `toml:"burst"`
}

func validateRateLimit(cfg *RateLimitConfig) error {
	if cfg == nil {
		return nil
	}

	if cfg.Rate < 0 {
		return fmt.Errorf("rate limit rate cannot be negative")
	}

	if cfg.Burst < 0 {
		return fmt.Errorf("rate limit burst cannot be negative")
	}

	return nil
}
