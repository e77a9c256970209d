// FILE: src/internal/transport/transport_test.go
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"pulse/src/internal/config"
	"pulse/src/internal/core"
	"pulse/src/internal/format"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

const testEndpoint = "http://collector.test/report"

type capturedRequest struct {
	method          string
	uri             string
	contentType     string
	contentEncoding string
	userAgent       string
	authorization   string
	custom          string
	data            string
	body            []byte
}

// testCollector serves fasthttp over an in-memory listener
type testCollector struct {
	ln       *fasthttputil.InmemoryListener
	status   int
	mu       sync.Mutex
	requests []capturedRequest
}

func newTestCollector(t *testing.T, status int) *testCollector {
	c := &testCollector{ln: fasthttputil.NewInmemoryListener(), status: status}
	server := &fasthttp.Server{Handler: c.handle}
	go func() { _ = server.Serve(c.ln) }()
	t.Cleanup(func() { _ = c.ln.Close() })
	return c
}

func (c *testCollector) handle(ctx *fasthttp.RequestCtx) {
	c.mu.Lock()
	c.requests = append(c.requests, capturedRequest{
		method:          string(ctx.Method()),
		uri:             string(ctx.RequestURI()),
		contentType:     string(ctx.Request.Header.ContentType()),
		contentEncoding: string(ctx.Request.Header.Peek("Content-Encoding")),
		userAgent:       string(ctx.Request.Header.UserAgent()),
		authorization:   string(ctx.Request.Header.Peek("Authorization")),
		custom:          string(ctx.Request.Header.Peek("X-App")),
		data:            string(ctx.QueryArgs().Peek("data")),
		body:            append([]byte(nil), ctx.PostBody()...),
	})
	c.mu.Unlock()
	ctx.SetStatusCode(c.status)
	if c.status >= 400 {
		ctx.SetBodyString("rejected")
	}
}

func (c *testCollector) dial(string) (net.Conn, error) {
	return c.ln.Dial()
}

func (c *testCollector) captured() []capturedRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]capturedRequest(nil), c.requests...)
}

func newTestTransport(t *testing.T, c *testCollector, cfg *config.TransportConfig) *HTTPTransport {
	if cfg == nil {
		cfg = &config.TransportConfig{TimeoutMS: 2000}
	}
	h, err := NewHTTPTransport(cfg, log.NewLogger(), c.dial)
	require.NoError(t, err)
	return h
}

func testBatch() []core.Record {
	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return []core.Record{
		{ID: "1", Time: ts, Category: core.CategoryJSError, LogType: core.LevelError, LogInfo: "{}", DeviceInfo: "{}", ExtendsInfo: "{}"},
		{ID: "2", Time: ts, Category: core.CategoryNetworkSpeed, LogType: core.LevelInfo, LogInfo: "{}", DeviceInfo: "{}", ExtendsInfo: "{}"},
	}
}

func TestHTTPTransport_Post(t *testing.T) {
	c := newTestCollector(t, fasthttp.StatusOK)
	h := newTestTransport(t, c, nil)

	method := core.DefaultDeliveryMethod()
	method.Headers = map[string]string{"X-App": "shop"}
	require.NoError(t, h.Send(context.Background(), testEndpoint, method, testBatch()))

	reqs := c.captured()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "POST", req.method)
	assert.Equal(t, "application/json", req.contentType)
	assert.Empty(t, req.contentEncoding)
	assert.True(t, strings.HasPrefix(req.userAgent, "pulse/"))
	assert.Equal(t, "shop", req.custom)
	assert.Empty(t, req.authorization)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(req.body, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "1", decoded[0]["id"])
	assert.Equal(t, "2", decoded[1]["id"])
}

func TestHTTPTransport_CompressedCBOR(t *testing.T) {
	c := newTestCollector(t, fasthttp.StatusNoContent)
	h := newTestTransport(t, c, nil)

	method := core.DeliveryMethod{Kind: core.KindPost, Encoding: "cbor", Compression: "zstd"}
	require.NoError(t, h.Send(context.Background(), testEndpoint, method, testBatch()))

	req := c.captured()[0]
	assert.Equal(t, "application/cbor", req.contentType)
	assert.Equal(t, "zstd", req.contentEncoding)

	raw, err := format.Decompress(format.CompressionZstd, req.body)
	require.NoError(t, err)
	cbor, err := format.NewCBORFormatter()
	require.NoError(t, err)
	records, err := cbor.DecodeBatch(raw)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestHTTPTransport_Beacon(t *testing.T) {
	// Status is ignored for beacons
	c := newTestCollector(t, fasthttp.StatusServiceUnavailable)
	h := newTestTransport(t, c, nil)

	method := core.DeliveryMethod{Kind: core.KindBeacon, Encoding: "json", Compression: "none"}
	require.NoError(t, h.Send(context.Background(), testEndpoint, method, testBatch()))

	req := c.captured()[0]
	assert.Equal(t, "POST", req.method)
	assert.Equal(t, beaconContentType, req.contentType)
}

func TestHTTPTransport_Get(t *testing.T) {
	c := newTestCollector(t, fasthttp.StatusOK)
	h := newTestTransport(t, c, nil)
	method := core.DeliveryMethod{Kind: core.KindGet, Encoding: "json", Compression: "none"}

	t.Run("DataParam", func(t *testing.T) {
		require.NoError(t, h.Send(context.Background(), testEndpoint+"?app=shop", method, testBatch()))

		req := c.captured()[0]
		assert.Equal(t, "GET", req.method)
		assert.Contains(t, req.uri, "app=shop")

		var decoded []map[string]any
		require.NoError(t, json.Unmarshal([]byte(req.data), &decoded))
		assert.Len(t, decoded, 2)
	})

	t.Run("URLTooLong", func(t *testing.T) {
		batch := testBatch()
		batch[0].LogInfo = strings.Repeat("x", MaxGetURLLength)
		err := h.Send(context.Background(), testEndpoint, method, batch)
		assert.ErrorIs(t, err, ErrEncode)
		assert.Contains(t, err.Error(), "exceeds")
	})

	t.Run("CompressionRejected", func(t *testing.T) {
		m := method
		m.Compression = "lz4"
		assert.Error(t, h.Send(context.Background(), testEndpoint, m, testBatch()))
	})
}

func TestHTTPTransport_StatusError(t *testing.T) {
	c := newTestCollector(t, fasthttp.StatusBadGateway)
	h := newTestTransport(t, c, nil)

	err := h.Send(context.Background(), testEndpoint, core.DefaultDeliveryMethod(), testBatch())
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, fasthttp.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "rejected", statusErr.Body)
	assert.True(t, statusErr.Temporary())
	assert.False(t, (&StatusError{StatusCode: fasthttp.StatusRequestEntityTooLarge}).Temporary())

	stats := h.GetStats()
	assert.Equal(t, uint64(1), stats["total_batches"])
	assert.Equal(t, uint64(1), stats["failed_batches"])
}

func TestHTTPTransport_Errors(t *testing.T) {
	c := newTestCollector(t, fasthttp.StatusOK)
	h := newTestTransport(t, c, nil)

	t.Run("UnknownKind", func(t *testing.T) {
		m := core.DefaultDeliveryMethod()
		m.Kind = "carrier-pigeon"
		assert.ErrorIs(t, h.Send(context.Background(), testEndpoint, m, testBatch()), ErrEncode)
	})

	t.Run("UnknownEncoding", func(t *testing.T) {
		m := core.DefaultDeliveryMethod()
		m.Encoding = "xml"
		assert.ErrorIs(t, h.Send(context.Background(), testEndpoint, m, testBatch()), ErrEncode)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, h.Send(ctx, testEndpoint, core.DefaultDeliveryMethod(), testBatch()), context.Canceled)
	})

	assert.Empty(t, c.captured())
}

func TestHTTPTransport_BearerToken(t *testing.T) {
	c := newTestCollector(t, fasthttp.StatusOK)
	key := strings.Repeat("k", 32)
	h := newTestTransport(t, c, &config.TransportConfig{
		TimeoutMS: 2000,
		Auth:      &config.AuthConfig{SigningKey: key, Issuer: "pulse-test"},
	})

	require.NoError(t, h.Send(context.Background(), testEndpoint, core.DefaultDeliveryMethod(), testBatch()))

	auth := c.captured()[0].authorization
	require.True(t, strings.HasPrefix(auth, "Bearer "))

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer("pulse-test"),
	)
	claims := &jwt.RegisteredClaims{}
	token, err := parser.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims, func(*jwt.Token) (any, error) {
		return []byte(key), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.WithinDuration(t, claims.IssuedAt.Add(defaultTokenTTL), claims.ExpiresAt.Time, time.Second)
}

func TestNewSigner(t *testing.T) {
	s, err := NewSigner(nil)
	assert.NoError(t, err)
	assert.Nil(t, s)

	_, err = NewSigner(&config.AuthConfig{})
	assert.Error(t, err)

	s, err = NewSigner(&config.AuthConfig{SigningKey: "secret", TTLSeconds: 60})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, s.ttl)
}

func TestFunc(t *testing.T) {
	var got []core.Record
	var tr Transport = Func(func(_ context.Context, endpoint string, _ core.DeliveryMethod, batch []core.Record) error {
		got = batch
		return nil
	})
	require.NoError(t, tr.Send(context.Background(), testEndpoint, core.DefaultDeliveryMethod(), testBatch()))
	assert.Len(t, got, 2)
}
