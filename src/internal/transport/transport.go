// FILE: src/internal/transport/transport.go
package transport

import (
	"context"
	"errors"
	"fmt"

	"pulse/src/internal/core"
)

// Transport delivers one batch of records to an endpoint.
// A nil error means the batch was accepted.
type Transport interface {
	Send(ctx context.Context, endpoint string, method core.DeliveryMethod, batch []core.Record) error
}

// Func adapts a function to the Transport interface
type Func func(ctx context.Context, endpoint string, method core.DeliveryMethod, batch []core.Record) error

func (f Func) Send(ctx context.Context, endpoint string, method core.DeliveryMethod, batch []core.Record) error {
	return f(ctx, endpoint, method, batch)
}

// ErrEncode wraps failures to encode or compress a batch before sending
var ErrEncode = errors.New("encode failed")

// StatusError is returned when the collector answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the status is a server-side failure. A 4xx means the
// collector refused the batch itself.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500
}
