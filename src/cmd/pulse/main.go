// FILE: src/cmd/pulse/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"pulse/src/internal/monitor"
	"pulse/src/internal/version"

	"github.com/lixenwraith/log"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/term"
)

var logger *log.Logger

func main() {
	router := NewCommandRouter()
	handled, err := router.Route(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Print(helpText)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if handled {
		os.Exit(0)
	}

	flagCfg, err := ParseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Print(helpText)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	InitOutputHandler(flagCfg.Quiet)

	if flagCfg.ShowVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	cfg, _, err := loadConfig(os.Args[1:])
	if err != nil {
		if flagCfg.ConfigFile != "" && strings.Contains(err.Error(), "not found") {
			FatalError(2, "Config file not found: %s\n", flagCfg.ConfigFile)
		}
		FatalError(1, "Failed to load config: %v\n", err)
	}

	if err := initializeLogger(cfg, flagCfg.Quiet); err != nil {
		FatalError(1, "Failed to initialize logger: %v\n", err)
	}
	defer shutdownLogger()

	logger.Info("msg", "Pulse starting",
		"version", version.String(),
		"config_file", flagCfg.ConfigFile,
		"endpoint", cfg.Report.Endpoint,
		"method", cfg.Report.Method.Kind,
		"log_output", cfg.Logging.Output)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tp trace.TracerProvider
	if flagCfg.Trace {
		sdkTP, err := initTracer(ctx)
		if err != nil {
			logger.Error("msg", "Failed to initialize tracer", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := sdkTP.Shutdown(shutdownCtx); err != nil {
				logger.Warn("msg", "Tracer shutdown error", "error", err)
			}
		}()
		tp = sdkTP
	}

	a, err := bootstrapWithTracer(cfg, tp)
	if err != nil {
		logger.Error("msg", "Failed to bootstrap reporter", "error", err)
		os.Exit(1)
	}

	if err := a.start(ctx); err != nil {
		logger.Error("msg", "Failed to start producers", "error", err)
		os.Exit(1)
	}

	if flagCfg.ReadStdin {
		go func() {
			defer a.errors.Recover()
			n, err := monitor.ReadSignals(ctx, os.Stdin, a.reporter)
			if err != nil {
				a.errors.Capture(err, "stdin")
			}
			logger.Info("msg", "Stdin closed",
				"component", "main",
				"lines", n)
		}()
	}

	if interval := time.Duration(cfg.Logging.StatusIntervalSeconds) * time.Second; enableStatusReporter(interval) {
		go statusReporter(a, ctx, interval)
	}

	sh := NewSignalHandler(a, os.Args[1:], logger)
	defer sh.Stop()
	sig := sh.Handle(ctx)

	logger.Info("msg", "Shutdown signal received, delivering pending signals...",
		"signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.shutdown(shutdownCtx); err != nil {
		logger.Error("msg", "Shutdown timeout exceeded, pending signals lost",
			"error", err)
		return
	}
	logger.Info("msg", "Shutdown complete",
		"stats", a.reporter.GetStats())
}

func enableStatusReporter(interval time.Duration) bool {
	if interval <= 0 {
		return false
	}
	if os.Getenv("PULSE_DISABLE_STATUS_REPORTER") == "1" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
