// FILE: src/internal/monitor/lines.go
package monitor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"pulse/src/internal/core"
)

// lineSignal is the JSON shape accepted by ReadSignals
type lineSignal struct {
	Category  string         `json:"category"`
	Level     string         `json:"level"`
	Message   any            `json:"message"`
	URL       string         `json:"url"`
	Stack     []core.Frame   `json:"stack"`
	OtherInfo map[string]any `json:"otherInfo"`
	Time      string         `json:"time"`
}

// ReadSignals submits one signal per line of r until EOF or ctx is done.
// JSON lines are decoded as signals, anything else becomes a custom signal with the line as message.
func ReadSignals(ctx context.Context, r io.Reader, reporter *Reporter) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	count := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		line := scanner.Text()
		if line == "" {
			continue
		}

		reporter.Submit(parseLine(line))
		count++
	}

	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("failed to read signals: %w", err)
	}
	return count, nil
}

// parseLine attempts to parse a JSON signal or wraps plain text
func parseLine(line string) core.Signal {
	var ls lineSignal
	if err := json.Unmarshal([]byte(line), &ls); err == nil && ls.Message != nil {
		sig := core.Signal{
			Category:  core.Category(ls.Category),
			Level:     core.ParseLevel(ls.Level),
			Message:   ls.Message,
			URL:       ls.URL,
			Stack:     ls.Stack,
			OtherInfo: ls.OtherInfo,
		}
		if ts, err := time.Parse(time.RFC3339Nano, ls.Time); err == nil {
			sig.Time = ts
		}
		return sig
	}

	// Plain text line
	return core.Signal{
		Category: core.CategoryCustom,
		Level:    core.LevelInfo,
		Message:  line,
	}
}
