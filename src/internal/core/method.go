// FILE: src/internal/core/method.go
package core

import (
	"sort"
	"strings"
)

// Delivery kinds understood by the HTTP transport
const (
	KindPost   = "post"
	KindBeacon = "beacon"
	KindGet    = "get"
)

// DeliveryMethod describes how a batch travels to the collector
type DeliveryMethod struct {
	Kind        string            `toml:"kind"`
	Encoding    string            `toml:"encoding"`
	Compression string            `toml:"compression"`
	Headers     map[string]string `toml:"headers"`
}

// DefaultDeliveryMethod posts JSON without compression
func DefaultDeliveryMethod() DeliveryMethod {
	return DeliveryMethod{
		Kind:        KindPost,
		Encoding:    "json",
		Compression: "none",
	}
}

// Key identifies entries that may share one transport call
func (m DeliveryMethod) Key() string {
	var b strings.Builder
	b.WriteString(m.Kind)
	b.WriteByte('|')
	b.WriteString(m.Encoding)
	b.WriteByte('|')
	b.WriteString(m.Compression)

	if len(m.Headers) > 0 {
		keys := make([]string, 0, len(m.Headers))
		for k := range m.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteByte('|')
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(m.Headers[k])
		}
	}
	return b.String()
}
