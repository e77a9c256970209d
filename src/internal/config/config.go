// FILE: src/internal/config/config.go
package config

import "pulse/src/internal/core"

// Config is the complete pulse configuration
type Config struct {
	// Collector endpoint and delivery method
	Report ReportConfig `toml:"report"`

	// Dispatch queue tuning
	Queue QueueConfig `toml:"queue"`

	// HTTP transport settings
	Transport TransportConfig `toml:"transport"`

	// Noise filters applied after self-report suppression
	Filters []FilterConfig `toml:"filters"`

	// Per-category rate limiting
	RateLimit *RateLimitConfig `toml:"rate_limit"`

	// Network speed producer
	NetworkSpeed NetworkSpeedConfig `toml:"network_speed"`

	// Static extension fields attached to every record
	Extensions map[string]any `toml:"extensions"`

	// Device description overrides
	Device DeviceConfig `toml:"device"`

	// Diagnostic logging of pulse itself
	Logging *LogConfig `toml:"logging"`
}

type ReportConfig struct {
	// Collector URL, also used for self-report suppression
	Endpoint string `toml:"endpoint"`

	Method core.DeliveryMethod `toml:"method"`
}

type QueueConfig struct {
	// Delay of the fallback flush check scheduled by every enqueue
	CheckDelayMS int64 `toml:"check_delay_ms"`

	// Soft cap on pending entries, oldest are evicted beyond it
	MaxPending int64 `toml:"max_pending"`

	// Maximum records handed to the transport in one call
	MaxBatchSize int64 `toml:"max_batch_size"`
}

type TransportConfig struct {
	TimeoutMS          int64       `toml:"timeout_ms"`
	MaxConnsPerHost    int64       `toml:"max_conns_per_host"`
	InsecureSkipVerify bool        `toml:"insecure_skip_verify"`
	Auth               *AuthConfig `toml:"auth"`
}

// AuthConfig enables a signed bearer token on every delivery
type AuthConfig struct {
	SigningKey string `toml:"signing_key"`
	Issuer     string `toml:"issuer"`
	TTLSeconds int64  `toml:"ttl_seconds"`
}

type NetworkSpeedConfig struct {
	Enabled bool `toml:"enabled"`

	// Resource of known size used as the probe target
	ProbeURL string `toml:"probe_url"`

	// Size of the probe resource in bytes, used by the fixed-size strategy
	DownloadSize int64 `toml:"download_size"`

	IntervalSeconds int64 `toml:"interval_seconds"`

	// "stream" counts received bytes, "fixed" times a known-size download
	Strategy string `toml:"strategy"`

	PageID  string `toml:"page_id"`
	PageURL string `toml:"page_url"`
}

type DeviceConfig struct {
	NetworkType string         `toml:"network_type"`
	Extra       map[string]any `toml:"extra"`
}

func defaults() *Config {
	return &Config{
		Report: ReportConfig{
			Endpoint: "http://localhost:8080/report",
			Method:   core.DefaultDeliveryMethod(),
		},
		Queue: QueueConfig{
			CheckDelayMS: 100,
			MaxPending:   1000,
			MaxBatchSize: 50,
		},
		Transport: TransportConfig{
			TimeoutMS:       5000,
			MaxConnsPerHost: 4,
		},
		NetworkSpeed: NetworkSpeedConfig{
			Enabled:         false,
			ProbeURL:        "https://example.com/pulse/network_speed.png",
			DownloadSize:    255438,
			IntervalSeconds: 60,
			Strategy:        "stream",
		},
		Logging: DefaultLogConfig(),
	}
}
