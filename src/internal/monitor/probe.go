// FILE: src/internal/monitor/probe.go
package monitor

import (
	"context"
	"fmt"
	"math"
	"time"

	"pulse/src/internal/config"

	"github.com/valyala/fasthttp"
)

// Speed is the outcome of one probe download
type Speed struct {
	Bytes    int64
	Duration time.Duration

	// Kilobytes per second, the reported networkSpeed
	KBps float64

	// Bit rates, set by probes that know the payload size up front
	Bps  float64
	Kbps float64
	Mbps float64
}

// Probe measures download throughput against a URL
type Probe interface {
	Measure(ctx context.Context, url string) (Speed, error)
	Name() string
}

// StreamProbe downloads the resource and counts the received body bytes
type StreamProbe struct {
	client  *fasthttp.Client
	timeout time.Duration
	now     func() time.Time
}

func NewStreamProbe(client *fasthttp.Client, timeout time.Duration) *StreamProbe {
	return &StreamProbe{client: client, timeout: timeout, now: time.Now}
}

func (p *StreamProbe) Name() string {
	return "stream"
}

func (p *StreamProbe) Measure(ctx context.Context, url string) (Speed, error) {
	start := p.now()
	n, err := download(ctx, p.client, url, p.timeout)
	if err != nil {
		return Speed{}, err
	}
	elapsed := p.now().Sub(start)
	if n == 0 {
		return Speed{}, fmt.Errorf("probe returned an empty body")
	}

	return Speed{
		Bytes:    int64(n),
		Duration: elapsed,
		KBps:     round2(float64(n) / seconds(elapsed) / 1024),
	}, nil
}

// FixedSizeProbe times the download of a resource of known size
type FixedSizeProbe struct {
	client  *fasthttp.Client
	size    int64
	timeout time.Duration
	now     func() time.Time
}

func NewFixedSizeProbe(client *fasthttp.Client, size int64, timeout time.Duration) *FixedSizeProbe {
	return &FixedSizeProbe{client: client, size: size, timeout: timeout, now: time.Now}
}

func (p *FixedSizeProbe) Name() string {
	return "fixed"
}

func (p *FixedSizeProbe) Measure(ctx context.Context, url string) (Speed, error) {
	start := p.now()
	if _, err := download(ctx, p.client, url, p.timeout); err != nil {
		return Speed{}, err
	}
	elapsed := p.now().Sub(start)
	secs := seconds(elapsed)

	bps := round2(float64(p.size*8) / secs)
	kbps := round2(bps / 1024)
	return Speed{
		Bytes:    p.size,
		Duration: elapsed,
		KBps:     round2(float64(p.size) / secs / 1024),
		Bps:      bps,
		Kbps:     kbps,
		Mbps:     round2(kbps / 1024),
	}, nil
}

// download performs a GET and returns the body length
func download(ctx context.Context, client *fasthttp.Client, url string, timeout time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := client.DoDeadline(req, resp, deadline); err != nil {
		return 0, fmt.Errorf("probe request failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return 0, fmt.Errorf("probe returned status %d", resp.StatusCode())
	}
	return len(resp.Body()), nil
}

// seconds guards against a zero elapsed time on coarse clocks
func seconds(d time.Duration) float64 {
	if d <= 0 {
		d = time.Millisecond
	}
	return d.Seconds()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NewProbeClient creates the HTTP client shared by probes. dial may be nil.
func NewProbeClient(timeout time.Duration, dial fasthttp.DialFunc) *fasthttp.Client {
	return &fasthttp.Client{
		MaxConnsPerHost:     1,
		MaxIdleConnDuration: 10 * time.Second,
		ReadTimeout:         timeout,
		WriteTimeout:        timeout,
		Dial:                dial,
	}
}

// ProbesFor picks the primary and fallback probes for a strategy
func ProbesFor(cfg config.NetworkSpeedConfig, client *fasthttp.Client, timeout time.Duration) (primary, fallback Probe) {
	size := cfg.DownloadSize
	if size <= 0 {
		size = DefaultDownloadSize
	}
	fixed := NewFixedSizeProbe(client, size, timeout)
	if cfg.Strategy == "fixed" {
		return fixed, nil
	}
	return NewStreamProbe(client, timeout), fixed
}
