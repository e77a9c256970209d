// FILE: src/internal/device/device.go
package device

import (
	"fmt"
	"maps"
	"os"
	"runtime"
)

// Provider supplies the device description attached to every record.
// Implementations may fail; callers degrade to an empty value.
type Provider interface {
	DeviceInfo() (map[string]any, error)
}

// ProviderFunc adapts a function to the Provider interface
type ProviderFunc func() (map[string]any, error)

// DeviceInfo calls f
func (f ProviderFunc) DeviceInfo() (map[string]any, error) {
	return f()
}

// Static returns a fixed description, used when the host collects device info itself
type Static map[string]any

// DeviceInfo returns a copy of the static description
func (s Static) DeviceInfo() (map[string]any, error) {
	if s == nil {
		return nil, fmt.Errorf("no static device info configured")
	}
	return maps.Clone(map[string]any(s)), nil
}

// Host describes the process host
type Host struct {
	// Optional network type label, e.g. "wifi" or "4g"
	NetworkType string

	// Extra fields merged over the collected values
	Extra map[string]any
}

// DeviceInfo collects platform fields from the runtime
func (h *Host) DeviceInfo() (map[string]any, error) {
	info := map[string]any{
		"platform": runtime.GOOS,
		"arch":     runtime.GOARCH,
		"runtime":  runtime.Version(),
		"cpus":     runtime.NumCPU(),
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to read hostname: %w", err)
	}
	info["hostname"] = hostname

	if h.NetworkType != "" {
		info["netType"] = h.NetworkType
	}
	for k, v := range h.Extra {
		info[k] = v
	}
	return info, nil
}
