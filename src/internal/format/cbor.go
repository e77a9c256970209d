// FILE: src/internal/format/cbor.go
package format

import (
	"fmt"
	"reflect"

	"pulse/src/internal/core"

	"github.com/fxamacker/cbor/v2"
)

// CBORFormatter encodes a batch as a CBOR array using Core Deterministic
// Encoding: sorted map keys, smallest integer encoding, definite lengths.
type CBORFormatter struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func NewCBORFormatter() (*CBORFormatter, error) {
	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	enc, err := encOptions.EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor encoder initialization failed: %w", err)
	}

	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("cbor decoder initialization failed: %w", err)
	}

	return &CBORFormatter{enc: enc, dec: dec}, nil
}

func (f *CBORFormatter) FormatBatch(records []core.Record) ([]byte, error) {
	if records == nil {
		records = []core.Record{}
	}
	result, err := f.enc.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal CBOR: %w", err)
	}
	return result, nil
}

// DecodeBatch is the inverse of FormatBatch
func (f *CBORFormatter) DecodeBatch(data []byte) ([]core.Record, error) {
	var records []core.Record
	if err := f.dec.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal CBOR: %w", err)
	}
	return records, nil
}

func (f *CBORFormatter) ContentType() string {
	return "application/cbor"
}

func (f *CBORFormatter) Name() string {
	return "cbor"
}
