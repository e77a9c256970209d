// FILE: src/internal/core/discard.go
package core

// DiscardReason explains why a signal or record never reached the collector
type DiscardReason string

const (
	// No discard
	ReasonNone DiscardReason = ""

	// Message was empty
	ReasonEmptyMessage DiscardReason = "empty_message"

	// Signal concerned the reporting endpoint itself
	ReasonSelfReport DiscardReason = "self_report"

	// Signal was rejected by a pattern filter
	ReasonFiltered DiscardReason = "filtered"

	// Category exceeded its rate limit
	ReasonRateLimited DiscardReason = "rate_limited"

	// Pending sequence exceeded its soft cap and the oldest entry was evicted
	ReasonQueueOverflow DiscardReason = "queue_overflow"

	// Batch could not be encoded for the wire
	ReasonEncodeError DiscardReason = "encode_error"

	// Transport failed before a response was received
	ReasonNetworkError DiscardReason = "network_error"

	// Collector failed with a 5xx status, or the send panicked
	ReasonSendError DiscardReason = "send_error"

	// Collector refused the batch with a 4xx status
	ReasonCollectorRejected DiscardReason = "collector_rejected"
)

// ReasonQueueClosed marks records enqueued after the queue was stopped
const ReasonQueueClosed DiscardReason = "queue_closed"
