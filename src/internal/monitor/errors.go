// FILE: src/internal/monitor/errors.go
package monitor

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"

	"pulse/src/internal/core"
)

const maxStackDepth = 32

// ErrorMonitor reports errors, failed resource loads and panics
type ErrorMonitor struct {
	reporter *Reporter
}

func NewErrorMonitor(r *Reporter) *ErrorMonitor {
	return &ErrorMonitor{reporter: r}
}

// Capture reports err as an error signal with the caller's stack
func (m *ErrorMonitor) Capture(err error, url string) {
	if err == nil {
		return
	}
	m.reporter.Submit(core.Signal{
		Category:  core.CategoryJSError,
		Level:     core.LevelError,
		Message:   err.Error(),
		URL:       url,
		Stack:     callerFrames(3),
		OtherInfo: map[string]any{"type": fmt.Sprintf("%T", err)},
	})
}

// CaptureResource reports a failed load of the resource at url
func (m *ErrorMonitor) CaptureResource(url string, err error) {
	msg := "resource load failed"
	if err != nil {
		msg = err.Error()
	}
	m.reporter.Submit(core.Signal{
		Category:  core.CategoryResourceError,
		Level:     core.LevelWarning,
		Message:   msg,
		URL:       url,
		OtherInfo: map[string]any{"resource": url},
	})
}

// CapturePanic reports a recovered panic value with the stack printed by debug.Stack
func (m *ErrorMonitor) CapturePanic(r any, stack []byte) {
	m.reporter.Submit(core.Signal{
		Category:  core.CategoryJSError,
		Level:     core.LevelFatal,
		Message:   fmt.Sprint(r),
		Stack:     parseStack(stack),
		OtherInfo: map[string]any{"type": fmt.Sprintf("%T", r), "panic": true},
	})
}

// Recover reports and swallows a panic. Use as: defer mon.Recover()
func (m *ErrorMonitor) Recover() {
	if r := recover(); r != nil {
		m.CapturePanic(r, debug.Stack())
	}
}

// callerFrames collects the stack above skip callers
func callerFrames(skip int) []core.Frame {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	out := make([]core.Frame, 0, n)
	for {
		f, more := frames.Next()
		out = append(out, core.Frame{File: f.File, Function: f.Function, Line: f.Line})
		if !more {
			break
		}
	}
	return out
}

// parseStack turns debug.Stack output into frames.
// Function lines are followed by a tab-indented "file:line +0xoff" line.
func parseStack(stack []byte) []core.Frame {
	lines := strings.Split(string(stack), "\n")
	var out []core.Frame
	for i := 1; i+1 < len(lines); i++ {
		fn := lines[i]
		loc := lines[i+1]
		if fn == "" || strings.HasPrefix(fn, "\t") || !strings.HasPrefix(loc, "\t") {
			continue
		}
		i++

		loc = strings.TrimPrefix(loc, "\t")
		if sp := strings.LastIndexByte(loc, ' '); sp > 0 {
			loc = loc[:sp]
		}
		file, line := loc, 0
		if colon := strings.LastIndexByte(loc, ':'); colon > 0 {
			file = loc[:colon]
			line, _ = strconv.Atoi(loc[colon+1:])
		}
		if paren := strings.LastIndexByte(fn, '('); paren > 0 {
			fn = fn[:paren]
		}

		// Skip the stack capture machinery itself
		if strings.HasPrefix(fn, "runtime/debug.Stack") || strings.HasPrefix(fn, "panic") {
			continue
		}

		out = append(out, core.Frame{File: file, Function: fn, Line: line})
		if len(out) == maxStackDepth {
			break
		}
	}
	return out
}
