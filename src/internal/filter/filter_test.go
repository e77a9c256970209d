// FILE: src/internal/filter/filter_test.go
package filter

import (
	"errors"
	"testing"

	"pulse/src/internal/config"
	"pulse/src/internal/core"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func TestNewFilter(t *testing.T) {
	logger := newTestLogger()

	t.Run("SuccessWithDefaults", func(t *testing.T) {
		cfg := config.FilterConfig{Patterns: []string{"test"}}
		f, err := NewFilter(cfg, logger)
		assert.NoError(t, err)
		assert.NotNil(t, f)
		assert.Equal(t, config.FilterTypeInclude, f.config.Type)
		assert.Equal(t, config.FilterLogicOr, f.config.Logic)
	})

	t.Run("ErrorInvalidRegex", func(t *testing.T) {
		cfg := config.FilterConfig{Patterns: []string{"["}}
		f, err := NewFilter(cfg, logger)
		assert.Error(t, err)
		assert.Nil(t, f)
		assert.Contains(t, err.Error(), "invalid regex pattern")
	})
}

func TestFilter_Apply(t *testing.T) {
	logger := newTestLogger()

	testCases := []struct {
		name     string
		cfg      config.FilterConfig
		sig      core.Signal
		expected bool
	}{
		{
			name:     "IncludeOR_MatchOne",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude, Logic: config.FilterLogicOr, Patterns: []string{"TypeError", "ReferenceError"}},
			sig:      core.Signal{Message: "TypeError: x is undefined"},
			expected: true,
		},
		{
			name:     "IncludeOR_NoMatch",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude, Logic: config.FilterLogicOr, Patterns: []string{"TypeError", "ReferenceError"}},
			sig:      core.Signal{Message: "SyntaxError"},
			expected: false,
		},
		{
			name:     "IncludeAND_MatchOne",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude, Logic: config.FilterLogicAnd, Patterns: []string{"timeout", "checkout"}},
			sig:      core.Signal{Message: "timeout while loading"},
			expected: false,
		},
		{
			name:     "ExcludeOR_ScriptError",
			cfg:      config.FilterConfig{Type: config.FilterTypeExclude, Patterns: []string{"^js_error \\w+ Script error\\.?"}},
			sig:      core.Signal{Category: core.CategoryJSError, Level: core.LevelError, Message: "Script error."},
			expected: false,
		},
		{
			name:     "ExcludeAND_MatchOne",
			cfg:      config.FilterConfig{Type: config.FilterTypeExclude, Logic: config.FilterLogicAnd, Patterns: []string{"extension", "chrome"}},
			sig:      core.Signal{Message: "error in extension"},
			expected: true,
		},
		{
			name:     "MatchOnURL",
			cfg:      config.FilterConfig{Type: config.FilterTypeExclude, Patterns: []string{"analytics\\.example"}},
			sig:      core.Signal{Message: "load failed", URL: "https://analytics.example/tag.js"},
			expected: false,
		},
		{
			name:     "MatchStructuredMessage",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude, Patterns: []string{`"code":503`}},
			sig:      core.Signal{Message: map[string]any{"code": 503}},
			expected: true,
		},
		{
			name:     "MatchErrorMessage",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude, Patterns: []string{"connection reset"}},
			sig:      core.Signal{Message: errors.New("read: connection reset")},
			expected: true,
		},
		{
			name:     "NoPatterns",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude},
			sig:      core.Signal{Message: "anything"},
			expected: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewFilter(tc.cfg, logger)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, f.Apply(tc.sig))
		})
	}
}

func TestFilter_UpdatePatterns(t *testing.T) {
	logger := newTestLogger()
	f, err := NewFilter(config.FilterConfig{Type: config.FilterTypeExclude, Patterns: []string{"noise"}}, logger)
	assert.NoError(t, err)

	assert.False(t, f.Apply(core.Signal{Message: "noise"}))

	assert.NoError(t, f.UpdatePatterns([]string{"other"}))
	assert.True(t, f.Apply(core.Signal{Message: "noise"}))

	assert.Error(t, f.UpdatePatterns([]string{"("}))

	stats := f.GetStats()
	assert.Equal(t, uint64(2), stats["total_processed"])
	assert.Equal(t, uint64(1), stats["total_dropped"])
}

func TestFilter_CategoryScope(t *testing.T) {
	f, err := NewFilter(config.FilterConfig{
		Type:       config.FilterTypeExclude,
		Patterns:   []string{"ResizeObserver"},
		Categories: []core.Category{core.CategoryJSError},
	}, newTestLogger())
	assert.NoError(t, err)

	noisy := core.Signal{Category: core.CategoryJSError, Level: core.LevelError, Message: "ResizeObserver loop limit exceeded"}
	assert.False(t, f.Apply(noisy))

	// Same text in another category is outside the filter's scope
	other := core.Signal{Category: core.CategoryCustom, Level: core.LevelInfo, Message: "ResizeObserver loop limit exceeded"}
	assert.True(t, f.Apply(other))

	stats := f.GetStats()
	assert.Equal(t, uint64(2), stats["total_processed"])
	assert.Equal(t, uint64(1), stats["total_bypassed"])
	assert.Equal(t, uint64(1), stats["total_dropped"])
}
