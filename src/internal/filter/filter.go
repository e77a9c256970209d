// FILE: src/internal/filter/filter.go
package filter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"

	"pulse/src/internal/config"
	"pulse/src/internal/core"

	"github.com/lixenwraith/log"
)

// Filter applies regex-based noise filtering to signals
type Filter struct {
	config     config.FilterConfig
	patterns   []*regexp.Regexp
	categories map[core.Category]struct{}
	mu         sync.RWMutex
	logger     *log.Logger

	// Statistics
	totalProcessed atomic.Uint64
	totalBypassed  atomic.Uint64
	totalMatched   atomic.Uint64
	totalDropped   atomic.Uint64
}

// NewFilter creates a new filter from configuration
func NewFilter(cfg config.FilterConfig, logger *log.Logger) (*Filter, error) {
	// Set defaults
	if cfg.Type == "" {
		cfg.Type = config.FilterTypeInclude
	}
	if cfg.Logic == "" {
		cfg.Logic = config.FilterLogicOr
	}

	f := &Filter{
		config:   cfg,
		patterns: make([]*regexp.Regexp, 0, len(cfg.Patterns)),
		logger:   logger,
	}

	if len(cfg.Categories) > 0 {
		f.categories = make(map[core.Category]struct{}, len(cfg.Categories))
		for _, c := range cfg.Categories {
			f.categories[c] = struct{}{}
		}
	}

	// Compile patterns
	for i, pattern := range cfg.Patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern[%d] '%s': %w", i, pattern, err)
		}
		f.patterns = append(f.patterns, re)
	}

	logger.Debug("msg", "Filter created",
		"component", "filter",
		"type", cfg.Type,
		"logic", cfg.Logic,
		"pattern_count", len(cfg.Patterns),
		"categories", cfg.Categories)

	return f, nil
}

// Apply checks if a signal should be passed through
func (f *Filter) Apply(sig core.Signal) bool {
	f.totalProcessed.Add(1)

	if f.categories != nil {
		if _, scoped := f.categories[sig.Category]; !scoped {
			f.totalBypassed.Add(1)
			return true
		}
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	// No patterns means pass everything
	if len(f.patterns) == 0 {
		return true
	}

	matched := f.matches(signalText(sig))
	if matched {
		f.totalMatched.Add(1)
	}

	// Determine if we should pass or drop
	shouldPass := false
	switch f.config.Type {
	case config.FilterTypeInclude:
		shouldPass = matched
	case config.FilterTypeExclude:
		shouldPass = !matched
	}

	if !shouldPass {
		f.totalDropped.Add(1)
	}

	return shouldPass
}

// matches checks if text matches the patterns according to the logic
func (f *Filter) matches(text string) bool {
	switch f.config.Logic {
	case config.FilterLogicOr:
		for _, re := range f.patterns {
			if re.MatchString(text) {
				return true
			}
		}
		return false

	case config.FilterLogicAnd:
		for _, re := range f.patterns {
			if !re.MatchString(text) {
				return false
			}
		}
		return true

	default:
		// Shouldn't happen after validation
		f.logger.Warn("msg", "Unknown filter logic",
			"component", "filter",
			"logic", f.config.Logic)
		return false
	}
}

// GetStats returns filter statistics
func (f *Filter) GetStats() map[string]any {
	f.mu.RLock()
	patternCount := len(f.patterns)
	f.mu.RUnlock()

	return map[string]any{
		"type":            f.config.Type,
		"logic":           f.config.Logic,
		"pattern_count":   patternCount,
		"categories":      f.config.Categories,
		"total_processed": f.totalProcessed.Load(),
		"total_bypassed":  f.totalBypassed.Load(),
		"total_matched":   f.totalMatched.Load(),
		"total_dropped":   f.totalDropped.Load(),
	}
}

// UpdatePatterns allows dynamic pattern updates
func (f *Filter) UpdatePatterns(patterns []string) error {
	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for i, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid regex pattern[%d] '%s': %w", i, pattern, err)
		}
		compiled = append(compiled, re)
	}

	f.mu.Lock()
	f.patterns = compiled
	f.config.Patterns = patterns
	f.mu.Unlock()

	f.logger.Info("msg", "Filter patterns updated",
		"component", "filter",
		"pattern_count", len(patterns))
	return nil
}

// signalText renders the fields a pattern is matched against: "category level message url"
func signalText(sig core.Signal) string {
	text := messageText(sig.Message)
	if sig.Level != "" {
		text = string(sig.Level) + " " + text
	}
	if sig.Category != "" {
		text = string(sig.Category) + " " + text
	}
	if sig.URL != "" {
		text = text + " " + sig.URL
	}
	return text
}

func messageText(m any) string {
	switch v := m.(type) {
	case nil:
		return ""
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	}
	if b, err := json.Marshal(m); err == nil {
		return string(b)
	}
	return fmt.Sprint(m)
}
