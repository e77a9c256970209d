// FILE: src/internal/monitor/network.go
package monitor

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"pulse/src/internal/config"
	"pulse/src/internal/core"

	"github.com/lixenwraith/log"
)

const (
	DefaultSpeedInterval = 60 * time.Second
	DefaultDownloadSize  = 255438

	curTimeLayout = "2006-01-02 15:04:05"
)

// NetworkSpeedMonitor periodically probes download speed and reports it
type NetworkSpeedMonitor struct {
	reporter *Reporter
	probeURL string
	pageID   string
	pageURL  string
	interval time.Duration
	primary  Probe
	fallback Probe
	logger   *log.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Statistics
	totalProbes    atomic.Uint64
	totalFallbacks atomic.Uint64
	failedProbes   atomic.Uint64
}

// NewNetworkSpeedMonitor creates a monitor. fallback may be nil.
func NewNetworkSpeedMonitor(r *Reporter, cfg config.NetworkSpeedConfig, primary, fallback Probe, logger *log.Logger) (*NetworkSpeedMonitor, error) {
	if primary == nil {
		return nil, fmt.Errorf("network speed probe cannot be nil")
	}
	if _, err := url.Parse(cfg.ProbeURL); err != nil || cfg.ProbeURL == "" {
		return nil, fmt.Errorf("invalid probe URL %q", cfg.ProbeURL)
	}

	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = DefaultSpeedInterval
	}

	return &NetworkSpeedMonitor{
		reporter: r,
		probeURL: cfg.ProbeURL,
		pageID:   cfg.PageID,
		pageURL:  cfg.PageURL,
		interval: interval,
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start runs a first measurement immediately, then one per interval
func (m *NetworkSpeedMonitor) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.measureLoop()

	m.logger.Info("msg", "Network speed monitor started",
		"component", "network_speed",
		"interval", m.interval,
		"probe", m.primary.Name())
	return nil
}

// Stop halts measuring and waits for an in-progress probe
func (m *NetworkSpeedMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *NetworkSpeedMonitor) measureLoop() {
	defer m.wg.Done()

	m.Measure(m.ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.Measure(m.ctx)
		}
	}
}

// Measure runs one probe and submits the result. Failures are logged, not reported.
func (m *NetworkSpeedMonitor) Measure(ctx context.Context) (Speed, error) {
	m.totalProbes.Add(1)

	probe := m.primary
	speed, err := probe.Measure(ctx, m.bustedURL())
	if err != nil && m.fallback != nil && ctx.Err() == nil {
		m.logger.Debug("msg", "Primary probe failed, falling back",
			"component", "network_speed",
			"probe", probe.Name(),
			"error", err)
		m.totalFallbacks.Add(1)
		probe = m.fallback
		speed, err = probe.Measure(ctx, m.bustedURL())
	}
	if err != nil {
		m.failedProbes.Add(1)
		m.logger.Warn("msg", "Network speed probe failed",
			"component", "network_speed",
			"error", err)
		return Speed{}, err
	}

	m.reporter.Submit(core.Signal{
		Category: core.CategoryNetworkSpeed,
		Level:    core.LevelInfo,
		Message:  m.message(speed, probe.Name()),
		URL:      m.pageURL,
	})
	return speed, nil
}

// GetStats returns probe statistics
func (m *NetworkSpeedMonitor) GetStats() map[string]any {
	return map[string]any{
		"interval":        m.interval.String(),
		"total_probes":    m.totalProbes.Load(),
		"total_fallbacks": m.totalFallbacks.Load(),
		"failed_probes":   m.failedProbes.Load(),
	}
}

// message spreads extension fields first so the measurement keys always win
func (m *NetworkSpeedMonitor) message(speed Speed, probe string) map[string]any {
	pipeline := m.reporter.Pipeline()

	msg := pipeline.ResolveExtensions()
	msg["curTime"] = m.now().Format(curTimeLayout)
	msg["pageId"] = m.pageID
	msg["networkSpeed"] = strconv.FormatFloat(speed.KBps, 'f', 2, 64)
	msg["deviceInfo"] = pipeline.DeviceInfo()
	msg["probe"] = probe
	if speed.Kbps > 0 {
		msg["speedKbps"] = strconv.FormatFloat(speed.Kbps, 'f', 2, 64)
		msg["speedMbps"] = strconv.FormatFloat(speed.Mbps, 'f', 2, 64)
	}
	return msg
}

// bustedURL appends a random rand parameter so no cache serves the probe
func (m *NetworkSpeedMonitor) bustedURL() string {
	u, err := url.Parse(m.probeURL)
	if err != nil {
		return m.probeURL
	}
	q := u.Query()
	q.Set("rand", strconv.FormatFloat(rand.Float64(), 'f', -1, 64))
	u.RawQuery = q.Encode()
	return u.String()
}
