// FILE: src/internal/queue/queue.go
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pulse/src/internal/core"
	"pulse/src/internal/transport"

	"github.com/lixenwraith/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultCheckDelay   = 100 * time.Millisecond
	DefaultMaxPending   = 1000
	DefaultMaxBatchSize = 50

	tracerName    = "pulse/queue"
	flushSpanName = "pulse.queue.flush"
)

// Options tunes a Queue. Zero values select defaults.
type Options struct {
	// Delay of the fallback check scheduled by every enqueue
	CheckDelay time.Duration

	// Soft cap on pending entries, the oldest is evicted beyond it
	MaxPending int

	// Maximum records per transport call
	MaxBatchSize int

	Scheduler      Scheduler
	TracerProvider trace.TracerProvider
}

// Queue buffers records and delivers them in batches, one flush at a time.
// It starts stopped; Fire drains everything pending into a single flush.
type Queue struct {
	transport transport.Transport
	opts      Options
	tracer    trace.Tracer
	logger    *log.Logger

	mu        sync.Mutex
	pending   []core.Entry
	stopped   bool
	closed    bool
	flushDone chan struct{}
	timers    map[uint64]Timer
	nextTimer uint64
	discards  map[core.DiscardReason]uint64

	// Statistics
	totalEnqueued  atomic.Uint64
	totalFlushes   atomic.Uint64
	totalBatches   atomic.Uint64
	totalDelivered atomic.Uint64
	lastFlush      atomic.Value // time.Time
}

// New creates a stopped queue delivering through tr
func New(tr transport.Transport, opts Options, logger *log.Logger) *Queue {
	if opts.CheckDelay <= 0 {
		opts.CheckDelay = DefaultCheckDelay
	}
	if opts.MaxPending <= 0 {
		opts.MaxPending = DefaultMaxPending
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = DefaultMaxBatchSize
	}
	if opts.Scheduler == nil {
		opts.Scheduler = DefaultScheduler()
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	q := &Queue{
		transport: tr,
		opts:      opts,
		tracer:    tp.Tracer(tracerName),
		logger:    logger,
		stopped:   true,
		timers:    make(map[uint64]Timer),
		discards:  make(map[core.DiscardReason]uint64),
	}
	q.lastFlush.Store(time.Time{})
	return q
}

// Enqueue appends a record to the tail and schedules a delayed check. It never blocks on delivery.
func (q *Queue) Enqueue(endpoint string, method core.DeliveryMethod, rec core.Record) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.discards[core.ReasonQueueClosed]++
		q.logger.Debug("msg", "Record enqueued after stop, dropped",
			"component", "queue",
			"record_id", rec.ID)
		return
	}

	if len(q.pending) >= q.opts.MaxPending {
		evicted := q.pending[0]
		q.pending[0] = core.Entry{}
		q.pending = q.pending[1:]
		q.discards[core.ReasonQueueOverflow]++
		q.logger.Warn("msg", "Pending limit reached, oldest record evicted",
			"component", "queue",
			"max_pending", q.opts.MaxPending,
			"evicted_id", evicted.Record.ID)
	}

	q.pending = append(q.pending, core.Entry{
		Endpoint:   endpoint,
		Method:     method,
		Record:     rec,
		EnqueuedAt: time.Now(),
	})
	q.totalEnqueued.Add(1)

	q.scheduleCheckLocked()
}

// Fire starts a flush of everything pending. It returns false and changes
// nothing when the queue is empty or a flush is already running.
func (q *Queue) Fire() bool {
	entries, done, ok := q.begin()
	if !ok {
		return false
	}

	q.opts.Scheduler.Go(func() {
		q.deliver(context.Background(), entries)
		q.finish(done)
	})
	return true
}

// IsStopped reports whether no flush is in flight
func (q *Queue) IsStopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stopped
}

// Len returns the number of pending entries
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush delivers everything pending on the calling goroutine, waiting for an
// in-flight flush first. It returns early only when ctx is done.
func (q *Queue) Flush(ctx context.Context) error {
	for {
		q.mu.Lock()
		if !q.stopped {
			wait := q.flushDone
			q.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return nil
		}
		entries, done := q.beginLocked()
		q.mu.Unlock()

		q.deliver(ctx, entries)
		q.finish(done)
	}
}

// Stop cancels pending checks, rejects further records and flushes what remains
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.mu.Unlock()

	q.logger.Info("msg", "Stopping queue",
		"component", "queue",
		"pending", q.Len())

	if err := q.Flush(ctx); err != nil {
		return fmt.Errorf("queue flush on stop: %w", err)
	}
	return nil
}

// GetStats returns queue statistics
func (q *Queue) GetStats() map[string]any {
	q.mu.Lock()
	pending := len(q.pending)
	stopped := q.stopped
	timers := len(q.timers)
	discards := make(map[string]uint64, len(q.discards))
	for reason, n := range q.discards {
		discards[string(reason)] = n
	}
	q.mu.Unlock()

	lastFlush, _ := q.lastFlush.Load().(time.Time)
	return map[string]any{
		"pending":         pending,
		"stopped":         stopped,
		"scheduled_check": timers,
		"total_enqueued":  q.totalEnqueued.Load(),
		"total_flushes":   q.totalFlushes.Load(),
		"total_batches":   q.totalBatches.Load(),
		"total_delivered": q.totalDelivered.Load(),
		"last_flush":      lastFlush,
		"discarded":       discards,
	}
}

// Discarded returns the number of records dropped for reason
func (q *Queue) Discarded(reason core.DiscardReason) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.discards[reason]
}

// begin atomically checks stopped, flips to running and drains pending
func (q *Queue) begin() ([]core.Entry, chan struct{}, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.stopped || len(q.pending) == 0 {
		return nil, nil, false
	}
	entries, done := q.beginLocked()
	return entries, done, true
}

func (q *Queue) beginLocked() ([]core.Entry, chan struct{}) {
	entries := q.pending
	q.pending = nil
	q.stopped = false
	q.flushDone = make(chan struct{})
	return entries, q.flushDone
}

// finish returns the queue to stopped and rescues entries that arrived mid-flush
func (q *Queue) finish(done chan struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.stopped = true
	close(done)
	q.lastFlush.Store(time.Now())
	if len(q.pending) > 0 && !q.closed {
		q.scheduleCheckLocked()
	}
}

// scheduleCheckLocked arms a one-shot check that fires only if no flush is running
func (q *Queue) scheduleCheckLocked() {
	if q.closed {
		return
	}
	id := q.nextTimer
	q.nextTimer++
	q.timers[id] = q.opts.Scheduler.AfterFunc(q.opts.CheckDelay, func() {
		q.mu.Lock()
		delete(q.timers, id)
		q.mu.Unlock()

		if q.IsStopped() {
			q.Fire()
		}
	})
}

// deliver sends every chunk of the drained entries. Failures are logged and dropped.
func (q *Queue) deliver(ctx context.Context, entries []core.Entry) {
	q.totalFlushes.Add(1)

	for _, b := range groupBatches(entries, q.opts.MaxBatchSize) {
		q.totalBatches.Add(1)
		if err := q.sendBatch(ctx, b); err != nil {
			reason := classify(err)
			q.discard(reason, len(b.records))
			q.logger.Warn("msg", "Batch delivery failed, records dropped",
				"component", "queue",
				"endpoint", b.endpoint,
				"batch_size", len(b.records),
				"reason", reason,
				"error", err)
			continue
		}
		q.totalDelivered.Add(uint64(len(b.records)))
	}
}

// sendBatch calls the transport inside a span, converting panics to errors
func (q *Queue) sendBatch(ctx context.Context, b batch) (err error) {
	ctx, span := q.tracer.Start(ctx, flushSpanName,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("pulse.endpoint", b.endpoint),
			attribute.String("pulse.method", b.method.Kind),
			attribute.String("pulse.encoding", b.method.Encoding),
			attribute.Int("pulse.batch_size", len(b.records)),
		))
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return q.transport.Send(ctx, b.endpoint, b.method, b.records)
}

func (q *Queue) discard(reason core.DiscardReason, n int) {
	q.mu.Lock()
	q.discards[reason] += uint64(n)
	q.mu.Unlock()
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("transport panic: %v", e.value)
}

// classify maps a delivery error to its discard reason
func classify(err error) core.DiscardReason {
	var statusErr *transport.StatusError
	var pe *panicError
	switch {
	case errors.Is(err, transport.ErrEncode):
		return core.ReasonEncodeError
	case errors.As(err, &statusErr):
		if statusErr.Temporary() {
			return core.ReasonSendError
		}
		return core.ReasonCollectorRejected
	case errors.As(err, &pe):
		return core.ReasonSendError
	default:
		return core.ReasonNetworkError
	}
}
