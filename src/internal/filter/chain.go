// FILE: src/internal/filter/chain.go
package filter

import (
	"fmt"
	"regexp"
	"sync/atomic"

	"pulse/src/internal/config"
	"pulse/src/internal/core"

	"github.com/lixenwraith/log"
)

// Chain runs self-report suppression, pattern filters and rate limiting in order
type Chain struct {
	endpoint string
	filters  []*Filter
	limiter  *RateLimiter
	logger   *log.Logger

	// Statistics
	totalProcessed  atomic.Uint64
	totalPassed     atomic.Uint64
	totalSelfReport atomic.Uint64
	totalFiltered   atomic.Uint64
	totalLimited    atomic.Uint64
}

// NewChain creates a filter chain guarding the given report endpoint
func NewChain(endpoint string, configs []config.FilterConfig, rl *config.RateLimitConfig, logger *log.Logger) (*Chain, error) {
	chain := &Chain{
		endpoint: endpoint,
		filters:  make([]*Filter, 0, len(configs)),
		limiter:  NewRateLimiter(rl),
		logger:   logger,
	}

	for i, cfg := range configs {
		filter, err := NewFilter(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("filter[%d]: %w", i, err)
		}
		chain.filters = append(chain.filters, filter)
	}

	logger.Info("msg", "Filter chain created",
		"component", "filter_chain",
		"filter_count", len(configs),
		"rate_limited", chain.limiter != nil)
	return chain, nil
}

// Apply runs a signal through the chain and reports why it was dropped, if it was
func (c *Chain) Apply(sig core.Signal) (bool, core.DiscardReason) {
	c.totalProcessed.Add(1)

	if ShouldSuppress(sig.URL, c.endpoint) {
		c.totalSelfReport.Add(1)
		c.logger.Debug("msg", "Signal concerns report endpoint, suppressed",
			"component", "filter_chain",
			"category", sig.Category,
			"url", sig.URL)
		return false, core.ReasonSelfReport
	}

	for i, filter := range c.filters {
		if !filter.Apply(sig) {
			c.totalFiltered.Add(1)
			c.logger.Debug("msg", "Signal filtered out",
				"component", "filter_chain",
				"filter_index", i,
				"filter_type", filter.config.Type)
			return false, core.ReasonFiltered
		}
	}

	if c.limiter != nil && !c.limiter.Allow(sig.Category) {
		c.totalLimited.Add(1)
		return false, core.ReasonRateLimited
	}

	c.totalPassed.Add(1)
	return true, core.ReasonNone
}

// UpdatePatterns swaps in new patterns for every filter. Filters can only be
// re-patterned in place, so configs must match the chain's filters one to one.
// Nothing changes unless every pattern compiles.
func (c *Chain) UpdatePatterns(configs []config.FilterConfig) error {
	if len(configs) != len(c.filters) {
		return fmt.Errorf("filter count changed from %d to %d, restart to add or remove filters",
			len(c.filters), len(configs))
	}

	for i, cfg := range configs {
		f := c.filters[i]
		if (cfg.Type != "" && cfg.Type != f.config.Type) || (cfg.Logic != "" && cfg.Logic != f.config.Logic) {
			return fmt.Errorf("filter[%d]: type or logic changed, restart to apply", i)
		}
		for j, pattern := range cfg.Patterns {
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("filter[%d] pattern[%d] '%s': %w", i, j, pattern, err)
			}
		}
	}

	for i, cfg := range configs {
		if err := c.filters[i].UpdatePatterns(cfg.Patterns); err != nil {
			return fmt.Errorf("filter[%d]: %w", i, err)
		}
	}
	return nil
}

// GetStats returns aggregated statistics for the entire chain
func (c *Chain) GetStats() map[string]any {
	filterStats := make([]map[string]any, len(c.filters))
	for i, filter := range c.filters {
		filterStats[i] = filter.GetStats()
	}

	return map[string]any{
		"filter_count":      len(c.filters),
		"total_processed":   c.totalProcessed.Load(),
		"total_passed":      c.totalPassed.Load(),
		"total_self_report": c.totalSelfReport.Load(),
		"total_filtered":    c.totalFiltered.Load(),
		"total_limited":     c.totalLimited.Load(),
		"filters":           filterStats,
	}
}
