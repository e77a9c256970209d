package monitor

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"pulse/src/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

const probeURL = "http://cdn.test/network_speed.png"

func newProbeServer(t *testing.T, status int, body []byte) *fasthttp.Client {
	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(status)
		ctx.SetBody(body)
	}}
	go func() { _ = server.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	return NewProbeClient(time.Second, func(string) (net.Conn, error) {
		return ln.Dial()
	})
}

// steppingClock advances one second per reading
func steppingClock() func() time.Time {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		defer func() { n++ }()
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func TestStreamProbe(t *testing.T) {
	client := newProbeServer(t, fasthttp.StatusOK, bytes.Repeat([]byte("x"), 2048))
	probe := NewStreamProbe(client, time.Second)
	probe.now = steppingClock()

	speed, err := probe.Measure(context.Background(), probeURL)
	require.NoError(t, err)
	assert.Equal(t, int64(2048), speed.Bytes)
	assert.Equal(t, time.Second, speed.Duration)
	assert.Equal(t, 2.0, speed.KBps)
	assert.Zero(t, speed.Kbps)
	assert.Equal(t, "stream", probe.Name())
}

func TestStreamProbe_Errors(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		client := newProbeServer(t, fasthttp.StatusNotFound, []byte("missing"))
		_, err := NewStreamProbe(client, time.Second).Measure(context.Background(), probeURL)
		assert.Error(t, err)
	})

	t.Run("EmptyBody", func(t *testing.T) {
		client := newProbeServer(t, fasthttp.StatusOK, nil)
		_, err := NewStreamProbe(client, time.Second).Measure(context.Background(), probeURL)
		assert.Error(t, err)
	})

	t.Run("Cancelled", func(t *testing.T) {
		client := newProbeServer(t, fasthttp.StatusOK, []byte("x"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewStreamProbe(client, time.Second).Measure(ctx, probeURL)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFixedSizeProbe(t *testing.T) {
	client := newProbeServer(t, fasthttp.StatusOK, []byte("png"))
	probe := NewFixedSizeProbe(client, DefaultDownloadSize, time.Second)
	probe.now = steppingClock()

	speed, err := probe.Measure(context.Background(), probeURL)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultDownloadSize), speed.Bytes)
	assert.Equal(t, 2043504.0, speed.Bps)
	assert.Equal(t, 1995.61, speed.Kbps)
	assert.Equal(t, 1.95, speed.Mbps)
	assert.Equal(t, 249.45, speed.KBps)
}

func TestProbesFor(t *testing.T) {
	client := NewProbeClient(time.Second, nil)

	primary, fallback := ProbesFor(config.NetworkSpeedConfig{Strategy: "stream"}, client, time.Second)
	assert.Equal(t, "stream", primary.Name())
	require.NotNil(t, fallback)
	assert.Equal(t, "fixed", fallback.Name())

	primary, fallback = ProbesFor(config.NetworkSpeedConfig{Strategy: "fixed", DownloadSize: 1000}, client, time.Second)
	assert.Equal(t, "fixed", primary.Name())
	assert.Nil(t, fallback)
	assert.Equal(t, int64(1000), primary.(*FixedSizeProbe).size)
}
