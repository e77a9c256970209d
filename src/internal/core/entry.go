// FILE: src/internal/core/entry.go
package core

import (
	"reflect"
	"strings"
	"time"
)

// Category identifies which producer observed a signal
type Category string

const (
	CategoryUnknownError  Category = "unknown_error"
	CategoryJSError       Category = "js_error"
	CategoryResourceError Category = "resource_error"
	CategoryNetworkSpeed  Category = "network_speed"
	CategoryCustom        Category = "custom"
)

// Known reports whether c is one of the defined categories
func (c Category) Known() bool {
	switch c {
	case CategoryUnknownError, CategoryJSError, CategoryResourceError, CategoryNetworkSpeed, CategoryCustom:
		return true
	}
	return false
}

// Level is the severity attached to a signal
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

// ParseLevel maps a config string to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "warn", "warning":
		return LevelWarning
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Frame is a single stack frame of an error signal
type Frame struct {
	File      string `json:"file"`
	Function  string `json:"function,omitempty"`
	Line      int    `json:"line"`
	Column    int    `json:"column,omitempty"`
	SourceMap string `json:"sourceMap,omitempty"`
}

// Signal is a raw observed event before enrichment.
// Producers must not mutate a Signal after submitting it.
type Signal struct {
	Category  Category
	Level     Level
	Message   any
	URL       string
	Stack     []Frame
	OtherInfo map[string]any
	Time      time.Time
}

// IsEmpty reports whether the signal carries no message
func (s Signal) IsEmpty() bool {
	if s.Message == nil {
		return true
	}
	switch m := s.Message.(type) {
	case string:
		return m == ""
	case []byte:
		return len(m) == 0
	}

	v := reflect.ValueOf(s.Message)
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Record is a signal after device and extension enrichment, ready for transport
type Record struct {
	ID          string    `json:"id" cbor:"id"`
	Time        time.Time `json:"time" cbor:"time"`
	Category    Category  `json:"category" cbor:"category"`
	LogType     Level     `json:"logType" cbor:"logType"`
	LogInfo     string    `json:"logInfo" cbor:"logInfo"`
	DeviceInfo  string    `json:"deviceInfo" cbor:"deviceInfo"`
	ExtendsInfo string    `json:"extendsInfo" cbor:"extendsInfo"`

	// Source URL of the signal, kept for filtering only
	URL string `json:"-" cbor:"-"`
}

// Entry is a record owned by the dispatch queue
type Entry struct {
	Endpoint   string
	Method     DeliveryMethod
	Record     Record
	EnqueuedAt time.Time
}
