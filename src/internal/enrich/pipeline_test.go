package enrich

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pulse/src/internal/core"
	"pulse/src/internal/device"

	"github.com/google/go-cmp/cmp"
	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m), "sub-object should be valid JSON: %s", s)
	return m
}

func TestPipeline_EmptyMessage(t *testing.T) {
	p := NewPipeline(Extensions{}, nil, newTestLogger())

	testCases := []struct {
		name    string
		message any
	}{
		{"Nil", nil},
		{"EmptyString", ""},
		{"EmptyMap", map[string]any{}},
		{"EmptySlice", []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := p.Enrich(core.Signal{Category: core.CategoryJSError, Message: tc.message})
			assert.False(t, ok)
		})
	}
	assert.Equal(t, uint64(4), p.GetStats()["total_skipped"])
}

func TestPipeline_Enrich(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	provider := device.Static{"platform": "linux", "screen": "1920x1080"}
	p := NewPipeline(Extensions{Static: map[string]any{"appId": "shop"}}, provider, newTestLogger())

	rec, ok := p.Enrich(core.Signal{
		Category:  core.CategoryJSError,
		Level:     core.LevelError,
		Message:   "undefined is not a function",
		URL:       "https://shop.example.com/cart",
		Stack:     []core.Frame{{File: "app.js", Line: 10, Column: 4, SourceMap: "app.js.map"}},
		OtherInfo: map[string]any{"tag": "button", "cb": func() {}},
		Time:      ts,
	})
	require.True(t, ok)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, ts, rec.Time)
	assert.Equal(t, core.CategoryJSError, rec.Category)
	assert.Equal(t, core.LevelError, rec.LogType)
	assert.Equal(t, "https://shop.example.com/cart", rec.URL)

	logInfo := decode(t, rec.LogInfo)
	assert.Equal(t, "https://shop.example.com/cart", logInfo["url"])
	assert.Equal(t, "undefined is not a function", logInfo["errorInfo"])
	assert.Equal(t, map[string]any{"tag": "button"}, logInfo["otherErrorInfo"])
	stack, ok := logInfo["stack"].([]any)
	require.True(t, ok)
	assert.Len(t, stack, 1)

	want := map[string]any{"platform": "linux", "screen": "1920x1080"}
	if diff := cmp.Diff(want, decode(t, rec.DeviceInfo)); diff != "" {
		t.Errorf("device info mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, map[string]any{"appId": "shop"}, decode(t, rec.ExtendsInfo))
}

func TestPipeline_Defaults(t *testing.T) {
	p := NewPipeline(Extensions{}, nil, newTestLogger())
	p.now = func() time.Time { return time.Unix(100, 0) }

	rec, ok := p.Enrich(core.Signal{Message: "boom"})
	require.True(t, ok)

	assert.Equal(t, core.CategoryUnknownError, rec.Category)
	assert.Equal(t, core.LevelInfo, rec.LogType)
	assert.Equal(t, time.Unix(100, 0), rec.Time)
	assert.Equal(t, "{}", rec.DeviceInfo)
	assert.Equal(t, "{}", rec.ExtendsInfo)

	logInfo := decode(t, rec.LogInfo)
	_, hasStack := logInfo["stack"]
	assert.False(t, hasStack, "stack should be omitted when absent")
	assert.Equal(t, map[string]any{}, logInfo["otherErrorInfo"])
}

func TestPipeline_ExtensionMerge(t *testing.T) {
	t.Run("DynamicKeyInStatic", func(t *testing.T) {
		static := map[string]any{
			"a": 1,
			DynamicKey: func() map[string]any {
				return map[string]any{"a": 2, "b": 3}
			},
		}
		p := NewPipeline(Extensions{Static: static}, nil, newTestLogger())

		rec, ok := p.Enrich(core.Signal{Message: "x"})
		require.True(t, ok)

		got := decode(t, rec.ExtendsInfo)
		want := map[string]any{"a": float64(2), "b": float64(3)}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("extension mismatch (-want +got):\n%s", diff)
		}
		assert.NotContains(t, rec.ExtendsInfo, DynamicKey)
	})

	t.Run("ExplicitResolver", func(t *testing.T) {
		p := NewPipeline(Extensions{
			Static:  map[string]any{"a": 1, "keep": "static"},
			Dynamic: func() map[string]any { return map[string]any{"a": 2, "b": 3, "fn": func() {}} },
		}, nil, newTestLogger())

		got := p.ResolveExtensions()
		assert.Equal(t, map[string]any{"a": 2, "b": 3, "keep": "static"}, got)
	})

	t.Run("NestedCallables", func(t *testing.T) {
		p := NewPipeline(Extensions{Static: map[string]any{
			"app":  "shop",
			"meta": map[string]any{"cb": func() {}, "v": 1},
			"tags": []any{"a", func() {}, map[string]any{"f": func() {}, "k": "v"}},
		}}, nil, newTestLogger())

		rec, ok := p.Enrich(core.Signal{Message: "x"})
		require.True(t, ok)

		got := decode(t, rec.ExtendsInfo)
		want := map[string]any{
			"app":  "shop",
			"meta": map[string]any{"v": float64(1)},
			"tags": []any{"a", map[string]any{"k": "v"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("extension mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("UntypedResolverNonMap", func(t *testing.T) {
		p := NewPipeline(Extensions{Static: map[string]any{
			"a":        1,
			DynamicKey: func() any { return "not a map" },
		}}, nil, newTestLogger())

		assert.Equal(t, map[string]any{"a": 1}, p.ResolveExtensions())
	})

	t.Run("ResolverPanics", func(t *testing.T) {
		p := NewPipeline(Extensions{
			Static:  map[string]any{"a": 1},
			Dynamic: func() map[string]any { panic("resolver failed") },
		}, nil, newTestLogger())

		rec, ok := p.Enrich(core.Signal{Message: "x"})
		require.True(t, ok)
		assert.Equal(t, "{}", rec.ExtendsInfo)
		assert.Equal(t, uint64(1), p.GetStats()["extension_failures"])
	})
}

func TestPipeline_DeviceFailure(t *testing.T) {
	t.Run("ProviderError", func(t *testing.T) {
		provider := device.ProviderFunc(func() (map[string]any, error) {
			return nil, errors.New("no device api")
		})
		p := NewPipeline(Extensions{}, provider, newTestLogger())

		rec, ok := p.Enrich(core.Signal{Message: "x"})
		require.True(t, ok)
		assert.Equal(t, "{}", rec.DeviceInfo)
	})

	t.Run("ProviderPanics", func(t *testing.T) {
		provider := device.ProviderFunc(func() (map[string]any, error) {
			panic("device probe crashed")
		})
		p := NewPipeline(Extensions{}, provider, newTestLogger())

		rec, ok := p.Enrich(core.Signal{Message: "x"})
		require.True(t, ok)
		assert.Equal(t, "{}", rec.DeviceInfo)
		assert.Equal(t, uint64(1), p.GetStats()["device_failures"])
	})
}

func TestPipeline_UnserializableMessage(t *testing.T) {
	p := NewPipeline(Extensions{}, nil, newTestLogger())

	rec, ok := p.Enrich(core.Signal{Message: map[string]any{"ch": make(chan int)}})
	require.True(t, ok)

	logInfo := decode(t, rec.LogInfo)
	_, isString := logInfo["errorInfo"].(string)
	assert.True(t, isString, "unserializable message should fall back to text")
}

func TestPipeline_OtherInfoNestedCallable(t *testing.T) {
	p := NewPipeline(Extensions{}, nil, newTestLogger())

	rec, ok := p.Enrich(core.Signal{
		Message:   "boom",
		OtherInfo: map[string]any{"n": map[string]any{"f": func() {}}, "k": "v"},
	})
	require.True(t, ok)

	logInfo := decode(t, rec.LogInfo)
	assert.Equal(t, map[string]any{"n": map[string]any{}, "k": "v"}, logInfo["otherErrorInfo"])
	assert.Equal(t, "boom", logInfo["errorInfo"])
}
