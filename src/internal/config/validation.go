// FILE: src/internal/config/validation.go
package config

import (
	"fmt"
	"net/url"
	"strings"

	"pulse/src/internal/core"

	lconfig "github.com/lixenwraith/config"
)

// validateConfig is the centralized validator for the entire configuration
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := validateReport(&cfg.Report); err != nil {
		return fmt.Errorf("report config: %w", err)
	}

	if err := validateQueue(&cfg.Queue); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := validateTransport(&cfg.Transport); err != nil {
		return fmt.Errorf("transport config: %w", err)
	}

	for i := range cfg.Filters {
		if err := validateFilter(i, &cfg.Filters[i]); err != nil {
			return err
		}
	}

	if err := validateRateLimit(cfg.RateLimit); err != nil {
		return err
	}

	if err := validateNetworkSpeed(&cfg.NetworkSpeed); err != nil {
		return fmt.Errorf("network speed config: %w", err)
	}

	if cfg.Logging != nil {
		if err := validateLogConfig(cfg.Logging); err != nil {
			return fmt.Errorf("logging config: %w", err)
		}
	}

	return nil
}

func validateReport(cfg *ReportConfig) error {
	if err := lconfig.NonEmpty(cfg.Endpoint); err != nil {
		return fmt.Errorf("missing endpoint")
	}
	if err := validateHTTPURL(cfg.Endpoint); err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	return validateMethod(&cfg.Method)
}

func validateMethod(m *core.DeliveryMethod) error {
	switch m.Kind {
	case core.KindPost, core.KindBeacon, core.KindGet:
	case "":
		m.Kind = core.KindPost
	default:
		return fmt.Errorf("invalid method kind '%s' (must be 'post', 'beacon' or 'get')", m.Kind)
	}

	switch m.Encoding {
	case "json", "cbor":
	case "":
		m.Encoding = "json"
	default:
		return fmt.Errorf("invalid method encoding '%s' (must be 'json' or 'cbor')", m.Encoding)
	}

	switch m.Compression {
	case "none", "zstd", "lz4":
	case "":
		m.Compression = "none"
	default:
		return fmt.Errorf("invalid method compression '%s' (must be 'none', 'zstd' or 'lz4')", m.Compression)
	}

	// Query strings carry the JSON batch verbatim
	if m.Kind == core.KindGet && (m.Encoding != "json" || m.Compression != "none") {
		return fmt.Errorf("method kind 'get' only supports json encoding without compression")
	}

	return nil
}

func validateQueue(cfg *QueueConfig) error {
	if cfg.CheckDelayMS < 1 || cfg.CheckDelayMS > 60000 {
		return fmt.Errorf("check_delay_ms must be between 1 and 60000: %d", cfg.CheckDelayMS)
	}
	if cfg.MaxPending < 1 {
		return fmt.Errorf("max_pending must be positive: %d", cfg.MaxPending)
	}
	if cfg.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be positive: %d", cfg.MaxBatchSize)
	}
	return nil
}

func validateTransport(cfg *TransportConfig) error {
	if cfg.TimeoutMS < 1 {
		return fmt.Errorf("timeout_ms must be positive: %d", cfg.TimeoutMS)
	}
	if cfg.MaxConnsPerHost < 1 {
		return fmt.Errorf("max_conns_per_host must be positive: %d", cfg.MaxConnsPerHost)
	}
	if cfg.Auth != nil {
		if err := lconfig.NonEmpty(cfg.Auth.SigningKey); err != nil {
			return fmt.Errorf("auth: missing signing_key")
		}
		if len(cfg.Auth.SigningKey) < 32 {
			return fmt.Errorf("auth: signing_key must be at least 32 bytes")
		}
		if cfg.Auth.TTLSeconds < 0 {
			return fmt.Errorf("auth: ttl_seconds cannot be negative")
		}
	}
	return nil
}

func validateNetworkSpeed(cfg *NetworkSpeedConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if err := validateHTTPURL(cfg.ProbeURL); err != nil {
		return fmt.Errorf("probe_url: %w", err)
	}
	if cfg.IntervalSeconds < 1 {
		return fmt.Errorf("interval_seconds must be positive: %d", cfg.IntervalSeconds)
	}
	switch cfg.Strategy {
	case "stream", "":
	case "fixed":
		if cfg.DownloadSize < 1 {
			return fmt.Errorf("download_size must be positive for the fixed strategy")
		}
	default:
		return fmt.Errorf("invalid strategy '%s' (must be 'stream' or 'fixed')", cfg.Strategy)
	}
	return nil
}

func validateLogConfig(cfg *LogConfig) error {
	validOutputs := map[string]bool{
		"file": true, "stdout": true, "stderr": true, "none": true,
	}
	if !validOutputs[cfg.Output] {
		return fmt.Errorf("invalid log output mode: %s", cfg.Output)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	switch cfg.Format {
	case "txt", "json", "":
	default:
		return fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	if cfg.StatusIntervalSeconds < 0 {
		return fmt.Errorf("status_interval_seconds cannot be negative")
	}

	if cfg.Output == "file" && (cfg.File == nil || cfg.File.Directory == "") {
		return fmt.Errorf("file output requires logging.file.directory")
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL '%s': %w", raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("URL '%s' must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL '%s' has no host", raw)
	}
	return nil
}

// Validate re-checks a config after command-line overrides were applied
func Validate(cfg *Config) error {
	return validateConfig(cfg)
}
