// FILE: src/internal/enrich/pipeline.go
package enrich

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"pulse/src/internal/core"
	"pulse/src/internal/device"

	"github.com/google/uuid"
	"github.com/lixenwraith/log"
)

// DynamicKey is the static extension field treated as a zero-argument resolver
const DynamicKey = "getDynamic"

// Extensions holds caller-supplied context attached to every record
type Extensions struct {
	// Fields copied into every record
	Static map[string]any

	// Resolved once per enrichment; its fields win over Static on collision
	Dynamic func() map[string]any
}

// Pipeline turns raw signals into transport-ready records
type Pipeline struct {
	extensions Extensions
	device     device.Provider
	logger     *log.Logger
	now        func() time.Time

	// Statistics
	totalEnriched     atomic.Uint64
	totalSkipped      atomic.Uint64
	extensionFailures atomic.Uint64
	deviceFailures    atomic.Uint64
}

// NewPipeline creates an enrichment pipeline. A nil provider yields empty device info.
func NewPipeline(ext Extensions, provider device.Provider, logger *log.Logger) *Pipeline {
	return &Pipeline{
		extensions: ext,
		device:     provider,
		logger:     logger,
		now:        time.Now,
	}
}

type logInfo struct {
	URL            string         `json:"url"`
	ErrorInfo      any            `json:"errorInfo"`
	OtherErrorInfo map[string]any `json:"otherErrorInfo"`
	Stack          []core.Frame   `json:"stack,omitempty"`
}

// Enrich assembles a record from a signal. It returns false when the signal
// has no message. It never fails the caller: sub-fields that cannot be
// resolved degrade to an empty object.
func (p *Pipeline) Enrich(sig core.Signal) (rec core.Record, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("msg", "Panic during enrichment",
				"component", "enrich",
				"category", sig.Category,
				"panic", r)
			rec, ok = core.Record{}, false
		}
	}()

	if sig.IsEmpty() {
		p.totalSkipped.Add(1)
		return core.Record{}, false
	}

	ts := sig.Time
	if ts.IsZero() {
		ts = p.now()
	}
	level := sig.Level
	if level == "" {
		level = core.LevelInfo
	}
	category := sig.Category
	if category == "" {
		category = core.CategoryUnknownError
	}

	info := logInfo{
		URL:            sig.URL,
		ErrorInfo:      sig.Message,
		OtherErrorInfo: stripCallables(sig.OtherInfo),
		Stack:          sig.Stack,
	}
	if info.OtherErrorInfo == nil {
		info.OtherErrorInfo = map[string]any{}
	}

	logInfoJSON, err := json.Marshal(info)
	if err != nil {
		// Unserializable structured message, fall back to its printed form
		p.logger.Debug("msg", "Message not serializable, using text form",
			"component", "enrich",
			"error", err)
		info.ErrorInfo = fmt.Sprint(sig.Message)
		if logInfoJSON, err = json.Marshal(info); err != nil {
			info.OtherErrorInfo = map[string]any{}
			logInfoJSON, _ = json.Marshal(info)
		}
	}

	rec = core.Record{
		ID:          uuid.NewString(),
		Time:        ts,
		Category:    category,
		LogType:     level,
		URL:         sig.URL,
		LogInfo:     string(logInfoJSON),
		DeviceInfo:  encode(p.DeviceInfo()),
		ExtendsInfo: encode(p.ResolveExtensions()),
	}

	p.totalEnriched.Add(1)
	p.logger.Debug("msg", "Record enriched",
		"component", "enrich",
		"id", rec.ID,
		"category", rec.Category,
		"level", rec.LogType)

	return rec, true
}

// ResolveExtensions merges dynamic over static extension fields and drops callables.
// Any resolver failure yields an empty map.
func (p *Pipeline) ResolveExtensions() (out map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			p.extensionFailures.Add(1)
			p.logger.Warn("msg", "Extension resolver panicked",
				"component", "enrich",
				"panic", r)
			out = map[string]any{}
		}
	}()

	merged := make(map[string]any, len(p.extensions.Static))
	for k, v := range p.extensions.Static {
		merged[k] = v
	}

	resolver := p.extensions.Dynamic
	if resolver == nil {
		resolver = staticResolver(p.extensions.Static[DynamicKey])
	}
	if resolver != nil {
		for k, v := range resolver() {
			merged[k] = v
		}
	}

	return stripCallables(merged)
}

// DeviceInfo queries the device provider, degrading to an empty map on failure
func (p *Pipeline) DeviceInfo() (out map[string]any) {
	if p.device == nil {
		return map[string]any{}
	}

	defer func() {
		if r := recover(); r != nil {
			p.deviceFailures.Add(1)
			p.logger.Warn("msg", "Device info provider panicked",
				"component", "enrich",
				"panic", r)
			out = map[string]any{}
		}
	}()

	info, err := p.device.DeviceInfo()
	if err != nil {
		p.deviceFailures.Add(1)
		p.logger.Debug("msg", "Device info unavailable",
			"component", "enrich",
			"error", err)
		return map[string]any{}
	}
	if info == nil {
		return map[string]any{}
	}
	return stripCallables(info)
}

// GetStats returns enrichment statistics
func (p *Pipeline) GetStats() map[string]any {
	return map[string]any{
		"total_enriched":     p.totalEnriched.Load(),
		"total_skipped":      p.totalSkipped.Load(),
		"extension_failures": p.extensionFailures.Load(),
		"device_failures":    p.deviceFailures.Load(),
	}
}

// staticResolver recognizes the resolver shapes accepted under DynamicKey
func staticResolver(v any) func() map[string]any {
	switch fn := v.(type) {
	case func() map[string]any:
		return fn
	case func() any:
		return func() map[string]any {
			m, _ := fn().(map[string]any)
			return m
		}
	default:
		return nil
	}
}

// stripCallables copies m without function-valued fields, at any depth
func stripCallables(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if cleaned, ok := stripValue(v); ok {
			out[k] = cleaned
		}
	}
	return out
}

// stripValue reports false for a callable, descending into nested maps and slices
func stripValue(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case map[string]any:
		return stripCallables(t), true
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			if cleaned, ok := stripValue(e); ok {
				out = append(out, cleaned)
			}
		}
		return out, true
	}
	if reflect.TypeOf(v).Kind() == reflect.Func {
		return nil, false
	}
	return v, true
}

func encode(m map[string]any) string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
