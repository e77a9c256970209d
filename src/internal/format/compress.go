// FILE: src/internal/format/compress.go
package format

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the body compression of a transport call
type CompressionTag uint8

const (
	CompressionNone CompressionTag = iota
	CompressionZstd
	CompressionLZ4
)

// String returns the name used in config and Content-Encoding
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// ContentEncoding returns the header value for the tag, empty for none
func (tag CompressionTag) ContentEncoding() string {
	if tag == CompressionNone {
		return ""
	}
	return tag.String()
}

// ParseCompressionTag parses a compression tag; empty means none
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression tag: %q", name)
	}
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("format: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("format: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress encodes body with the tag's algorithm. For none the input is returned unchanged.
// LZ4 uses the frame format so the receiver needs no out-of-band size.
func Compress(tag CompressionTag, body []byte) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return body, nil

	case CompressionZstd:
		return zstdEncoder.EncodeAll(body, make([]byte, 0, len(body)/2)), nil

	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(body); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

// Decompress reverses Compress
func Decompress(tag CompressionTag, body []byte) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return body, nil

	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return out, nil

	case CompressionLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}
