// FILE: src/cmd/pulse/flags.go
package main

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/log"
	"github.com/spf13/pflag"
)

// FlagConfig holds command-line overrides
type FlagConfig struct {
	ConfigFile  string
	Endpoint    string
	LogLevel    string
	LogOutput   string
	Trace       bool
	ReadStdin   bool
	Quiet       bool
	ShowVersion bool
}

func newFlagSet(fc *FlagConfig) *pflag.FlagSet {
	fs := pflag.NewFlagSet("pulse", pflag.ContinueOnError)
	// Unknown flags are config paths handled by the config loader, e.g. --queue.max_pending=500
	fs.ParseErrorsAllowlist.UnknownFlags = true
	fs.Usage = func() {}

	fs.StringVarP(&fc.ConfigFile, "config", "c", "", "Config file path")
	fs.StringVar(&fc.Endpoint, "endpoint", "", "Collector endpoint URL (overrides config)")
	fs.StringVar(&fc.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	fs.StringVar(&fc.LogOutput, "log-output", "", "Log output: file, stdout, stderr, none (overrides config)")
	fs.BoolVar(&fc.Trace, "trace", false, "Export queue flush spans over OTLP gRPC")
	fs.BoolVar(&fc.ReadStdin, "stdin", false, "Report one signal per line read from stdin")
	fs.BoolVarP(&fc.Quiet, "quiet", "q", false, "Suppress all console output, including errors")
	fs.BoolVarP(&fc.ShowVersion, "version", "v", false, "Show version information")
	return fs
}

// ParseFlags parses args (without the program name)
func ParseFlags(args []string) (*FlagConfig, error) {
	fc := &FlagConfig{}
	fs := newFlagSet(fc)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fc.LogOutput != "" {
		validOutputs := map[string]bool{
			"file": true, "stdout": true, "stderr": true, "none": true,
		}
		if !validOutputs[fc.LogOutput] {
			return nil, fmt.Errorf("invalid log-output: %s (valid: file, stdout, stderr, none)", fc.LogOutput)
		}
	}

	if fc.LogLevel != "" {
		if _, err := parseLogLevel(fc.LogLevel); err != nil {
			return nil, fmt.Errorf("invalid log-level: %s (valid: debug, info, warn, error)", fc.LogLevel)
		}
	}

	return fc, nil
}

func parseLogLevel(level string) (int, error) {
	switch strings.ToLower(level) {
	case "debug":
		return int(log.LevelDebug), nil
	case "info":
		return int(log.LevelInfo), nil
	case "warn", "warning":
		return int(log.LevelWarn), nil
	case "error":
		return int(log.LevelError), nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}
