// FILE: src/internal/format/json.go
package format

import (
	"encoding/json"
	"fmt"

	"pulse/src/internal/core"
)

// JSONFormatter encodes a batch as a JSON array of records
type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// FormatBatch transforms records into a single JSON array byte slice.
// An empty batch encodes as [] rather than null.
func (f *JSONFormatter) FormatBatch(records []core.Record) ([]byte, error) {
	if records == nil {
		records = []core.Record{}
	}
	result, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return result, nil
}

func (f *JSONFormatter) ContentType() string {
	return "application/json"
}

// Name returns the formatter's type name.
func (f *JSONFormatter) Name() string {
	return "json"
}
