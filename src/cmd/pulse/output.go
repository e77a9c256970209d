// FILE: src/cmd/pulse/output.go
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// console prints user-facing lines; quiet mode silences it entirely
type console struct {
	quiet  bool
	stdout io.Writer
	stderr io.Writer
}

var output = &console{stdout: os.Stdout, stderr: os.Stderr}

// InitOutputHandler applies quiet mode to the global console
func InitOutputHandler(quiet bool) {
	output = &console{quiet: quiet, stdout: os.Stdout, stderr: os.Stderr}
}

func Print(format string, args ...any) {
	if !output.quiet {
		fmt.Fprintf(output.stdout, format, args...)
	}
}

func Error(format string, args ...any) {
	if !output.quiet {
		fmt.Fprintf(output.stderr, format, args...)
	}
}

func FatalError(code int, format string, args ...any) {
	Error(format, args...)
	os.Exit(code)
}

// PrintSendSummary reports how many stdin lines were read and why any were dropped
func PrintSendSummary(lines int, stats map[string]any) {
	delivered := uint64(0)
	drops := map[string]uint64{}
	if discards, ok := stats["discarded"].(map[string]uint64); ok {
		for k, v := range discards {
			drops[k] += v
		}
	}
	if qs, ok := stats["queue"].(map[string]any); ok {
		delivered, _ = qs["total_delivered"].(uint64)
		if discards, ok := qs["discarded"].(map[string]uint64); ok {
			for k, v := range discards {
				drops[k] += v
			}
		}
	}

	Print("%d lines read, %d records delivered\n", lines, delivered)
	if len(drops) == 0 {
		return
	}

	reasons := make([]string, 0, len(drops))
	for k := range drops {
		reasons = append(reasons, k)
	}
	sort.Strings(reasons)
	parts := make([]string, 0, len(reasons))
	for _, k := range reasons {
		parts = append(parts, fmt.Sprintf("%s=%d", k, drops[k]))
	}
	Print("dropped: %s\n", strings.Join(parts, " "))
}
