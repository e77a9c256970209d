// FILE: src/internal/transport/http.go
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"pulse/src/internal/config"
	"pulse/src/internal/core"
	"pulse/src/internal/format"
	"pulse/src/internal/version"

	"github.com/lixenwraith/log"
	"github.com/valyala/fasthttp"
)

const (
	// MaxGetURLLength bounds the request URI of get deliveries
	MaxGetURLLength = 8192

	beaconContentType = "text/plain;charset=UTF-8"
	getDataParam      = "data"
)

// HTTPTransport delivers batches to an HTTP collector
type HTTPTransport struct {
	config *config.TransportConfig
	client *fasthttp.Client
	signer *Signer
	logger *log.Logger

	formatters sync.Map // map[string]format.Formatter

	// Statistics
	totalBatches  atomic.Uint64
	totalRecords  atomic.Uint64
	failedBatches atomic.Uint64
	lastBatchSent atomic.Value // time.Time
}

// NewHTTPTransport creates a fasthttp backed transport.
// dial is optional and replaces the network dialer, e.g. with an in-memory listener.
func NewHTTPTransport(cfg *config.TransportConfig, logger *log.Logger, dial fasthttp.DialFunc) (*HTTPTransport, error) {
	if cfg == nil {
		return nil, fmt.Errorf("transport config cannot be nil")
	}

	var signer *Signer
	if cfg.Auth != nil {
		var err error
		if signer, err = NewSigner(cfg.Auth); err != nil {
			return nil, fmt.Errorf("failed to create token signer: %w", err)
		}
	}

	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	maxConns := int(cfg.MaxConnsPerHost)
	if maxConns <= 0 {
		maxConns = 4
	}

	h := &HTTPTransport{
		config: cfg,
		signer: signer,
		logger: logger,
		client: &fasthttp.Client{
			MaxConnsPerHost:               maxConns,
			MaxIdleConnDuration:           10 * time.Second,
			ReadTimeout:                   timeout,
			WriteTimeout:                  timeout,
			DisableHeaderNamesNormalizing: true,
			Dial:                          dial,
		},
	}
	h.lastBatchSent.Store(time.Time{})

	if cfg.InsecureSkipVerify {
		h.client.TLSConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
		logger.Warn("msg", "TLS verification disabled for collector",
			"component", "http_transport")
	}

	return h, nil
}

// Send encodes the batch per method and performs one request. No retries.
func (h *HTTPTransport) Send(ctx context.Context, endpoint string, method core.DeliveryMethod, batch []core.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.totalBatches.Add(1)
	h.totalRecords.Add(uint64(len(batch)))
	h.lastBatchSent.Store(time.Now())

	if err := h.send(ctx, endpoint, method, batch); err != nil {
		h.failedBatches.Add(1)
		return err
	}
	return nil
}

func (h *HTTPTransport) send(ctx context.Context, endpoint string, method core.DeliveryMethod, batch []core.Record) error {
	formatter, err := h.formatter(method.Encoding)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	body, err := formatter.FormatBatch(batch)
	if err != nil {
		return fmt.Errorf("%w: failed to format batch: %w", ErrEncode, err)
	}

	tag, err := format.ParseCompressionTag(method.Compression)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	// Acquire resources, release immediately after use
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	switch method.Kind {
	case core.KindGet:
		if tag != format.CompressionNone {
			return fmt.Errorf("%w: get delivery does not support compression %q", ErrEncode, tag)
		}
		uri, err := getURI(endpoint, body)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrEncode, err)
		}
		req.SetRequestURI(uri)
		req.Header.SetMethod(fasthttp.MethodGet)

	case core.KindPost, core.KindBeacon, "":
		compressed, err := format.Compress(tag, body)
		if err != nil {
			return fmt.Errorf("%w: failed to compress batch: %w", ErrEncode, err)
		}
		req.SetRequestURI(endpoint)
		req.Header.SetMethod(fasthttp.MethodPost)
		if method.Kind == core.KindBeacon {
			req.Header.SetContentType(beaconContentType)
		} else {
			req.Header.SetContentType(formatter.ContentType())
		}
		if enc := tag.ContentEncoding(); enc != "" {
			req.Header.Set("Content-Encoding", enc)
		}
		req.SetBody(compressed)

	default:
		return fmt.Errorf("%w: unknown delivery kind: %s", ErrEncode, method.Kind)
	}

	req.Header.Set("User-Agent", version.UserAgent())
	for k, v := range method.Headers {
		req.Header.Set(k, v)
	}

	if h.signer != nil {
		token, err := h.signer.Token(time.Now())
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if err := h.client.DoDeadline(req, resp, h.deadline(ctx)); err != nil {
		h.logger.Warn("msg", "HTTP request failed",
			"component", "http_transport",
			"endpoint", endpoint,
			"kind", method.Kind,
			"error", err)
		return fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()

	// Beacons are fire-and-forget, only transport errors count
	if method.Kind == core.KindBeacon {
		return nil
	}

	if statusCode >= 200 && statusCode < 300 {
		h.logger.Debug("msg", "Batch sent successfully",
			"component", "http_transport",
			"batch_size", len(batch),
			"status_code", statusCode)
		return nil
	}

	statusErr := &StatusError{StatusCode: statusCode, Body: string(resp.Body())}
	h.logger.Warn("msg", "Batch rejected by server",
		"component", "http_transport",
		"status_code", statusCode,
		"response", statusErr.Body,
		"batch_size", len(batch))
	return statusErr
}

// GetStats returns the transport's statistics.
func (h *HTTPTransport) GetStats() map[string]any {
	lastBatch, _ := h.lastBatchSent.Load().(time.Time)
	return map[string]any{
		"type":            "http",
		"total_batches":   h.totalBatches.Load(),
		"total_records":   h.totalRecords.Load(),
		"failed_batches":  h.failedBatches.Load(),
		"last_batch_sent": lastBatch,
		"auth":            h.signer != nil,
	}
}

func (h *HTTPTransport) formatter(encoding string) (format.Formatter, error) {
	if f, ok := h.formatters.Load(encoding); ok {
		return f.(format.Formatter), nil
	}
	f, err := format.New(encoding)
	if err != nil {
		return nil, err
	}
	actual, _ := h.formatters.LoadOrStore(encoding, f)
	return actual.(format.Formatter), nil
}

// deadline picks the earlier of the context deadline and the configured timeout
func (h *HTTPTransport) deadline(ctx context.Context) time.Time {
	timeout := time.Duration(h.config.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		return d
	}
	return deadline
}

// getURI appends the encoded batch as the data query parameter
func getURI(endpoint string, body []byte) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set(getDataParam, string(body))
	u.RawQuery = q.Encode()

	uri := u.String()
	if len(uri) > MaxGetURLLength {
		return "", fmt.Errorf("get request URI of %d bytes exceeds %d", len(uri), MaxGetURLLength)
	}
	return uri, nil
}

// Compile-time check
var _ Transport = (*HTTPTransport)(nil)
