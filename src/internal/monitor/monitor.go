// FILE: src/internal/monitor/monitor.go
package monitor

import (
	"context"
	"fmt"
	"sync"

	"pulse/src/internal/config"
	"pulse/src/internal/core"
	"pulse/src/internal/device"
	"pulse/src/internal/enrich"
	"pulse/src/internal/filter"
	"pulse/src/internal/queue"
	"pulse/src/internal/transport"

	"github.com/lixenwraith/log"
)

// Options wires a Reporter to its collaborators
type Options struct {
	// Collector URL, also used for self-report suppression
	Endpoint string
	Method   core.DeliveryMethod

	Extensions     enrich.Extensions
	DeviceProvider device.Provider
	Transport      transport.Transport

	Queue     queue.Options
	Filters   []config.FilterConfig
	RateLimit *config.RateLimitConfig
}

// Reporter is the shared path of every producer: enrich, filter, enqueue
type Reporter struct {
	endpoint string
	method   core.DeliveryMethod
	pipeline *enrich.Pipeline
	chain    *filter.Chain
	queue    *queue.Queue
	logger   *log.Logger

	mu       sync.Mutex
	discards map[core.DiscardReason]uint64
}

// NewReporter creates a reporter and its queue
func NewReporter(opts Options, logger *log.Logger) (*Reporter, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("report endpoint cannot be empty")
	}
	if opts.Transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}
	if opts.Method.Kind == "" {
		opts.Method = core.DefaultDeliveryMethod()
	}

	chain, err := filter.NewChain(opts.Endpoint, opts.Filters, opts.RateLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter chain: %w", err)
	}

	r := &Reporter{
		endpoint: opts.Endpoint,
		method:   opts.Method,
		pipeline: enrich.NewPipeline(opts.Extensions, opts.DeviceProvider, logger),
		chain:    chain,
		queue:    queue.New(opts.Transport, opts.Queue, logger),
		logger:   logger,
		discards: make(map[core.DiscardReason]uint64),
	}

	logger.Info("msg", "Reporter created",
		"component", "reporter",
		"endpoint", opts.Endpoint,
		"method", opts.Method.Kind,
		"encoding", opts.Method.Encoding)
	return r, nil
}

// Submit records a signal. It never blocks on delivery and never panics.
func (r *Reporter) Submit(sig core.Signal) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("msg", "Panic while recording signal",
				"component", "reporter",
				"category", sig.Category,
				"panic", p)
		}
	}()

	if sig.IsEmpty() {
		r.discard(core.ReasonEmptyMessage)
		return
	}

	if pass, reason := r.chain.Apply(sig); !pass {
		r.discard(reason)
		return
	}

	rec, ok := r.pipeline.Enrich(sig)
	if !ok {
		r.discard(core.ReasonEmptyMessage)
		return
	}

	r.queue.Enqueue(r.endpoint, r.method, rec)
}

// ReloadFilters re-patterns the filter chain from a fresh filter config
func (r *Reporter) ReloadFilters(configs []config.FilterConfig) error {
	if err := r.chain.UpdatePatterns(configs); err != nil {
		return fmt.Errorf("failed to reload filters: %w", err)
	}
	r.logger.Info("msg", "Filters reloaded",
		"component", "reporter",
		"filter_count", len(configs))
	return nil
}

// Endpoint returns the collector URL
func (r *Reporter) Endpoint() string {
	return r.endpoint
}

// Pipeline exposes enrichment for producers assembling their own payloads
func (r *Reporter) Pipeline() *enrich.Pipeline {
	return r.pipeline
}

// Queue exposes the dispatch queue
func (r *Reporter) Queue() *queue.Queue {
	return r.queue
}

// Close stops the queue, delivering what is pending
func (r *Reporter) Close(ctx context.Context) error {
	return r.queue.Stop(ctx)
}

// Discarded returns how many signals the reporter dropped for reason
func (r *Reporter) Discarded(reason core.DiscardReason) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.discards[reason]
}

// GetStats aggregates reporter, pipeline, filter and queue statistics
func (r *Reporter) GetStats() map[string]any {
	r.mu.Lock()
	discards := make(map[string]uint64, len(r.discards))
	for reason, n := range r.discards {
		discards[string(reason)] = n
	}
	r.mu.Unlock()

	return map[string]any{
		"endpoint":  r.endpoint,
		"discarded": discards,
		"enrich":    r.pipeline.GetStats(),
		"filters":   r.chain.GetStats(),
		"queue":     r.queue.GetStats(),
	}
}

func (r *Reporter) discard(reason core.DiscardReason) {
	r.mu.Lock()
	r.discards[reason]++
	r.mu.Unlock()
}
