// FILE: src/internal/format/format.go
package format

import (
	"fmt"

	"pulse/src/internal/core"
)

// Formatter encodes a batch of records into a transport body
type Formatter interface {
	// FormatBatch encodes the records as one body, preserving order
	FormatBatch(records []core.Record) ([]byte, error)

	// ContentType is the MIME type of the encoded body
	ContentType() string

	// Name returns the formatter type name
	Name() string
}

// New creates a Formatter for the named encoding
func New(name string) (Formatter, error) {
	// Default to json if no encoding specified
	if name == "" {
		name = "json"
	}

	switch name {
	case "json":
		return NewJSONFormatter(), nil
	case "cbor":
		return NewCBORFormatter()
	default:
		return nil, fmt.Errorf("unknown formatter type: %s", name)
	}
}
