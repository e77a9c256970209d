// FILE: src/cmd/pulse/bootstrap.go
package main

import (
	"context"
	"fmt"
	"time"

	"pulse/src/internal/config"
	"pulse/src/internal/device"
	"pulse/src/internal/enrich"
	"pulse/src/internal/monitor"
	"pulse/src/internal/queue"
	"pulse/src/internal/transport"

	"github.com/lixenwraith/log"
	"go.opentelemetry.io/otel/trace"
)

// app holds the running components
type app struct {
	transport *transport.HTTPTransport
	reporter  *monitor.Reporter
	errors    *monitor.ErrorMonitor
	speed     *monitor.NetworkSpeedMonitor
}

// bootstrap wires transport, reporter and producers from configuration.
// Producers are created but not started.
func bootstrap(cfg *config.Config) (*app, error) {
	return bootstrapWithTracer(cfg, nil)
}

func bootstrapWithTracer(cfg *config.Config, tp trace.TracerProvider) (*app, error) {
	tr, err := transport.NewHTTPTransport(&cfg.Transport, logger, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	reporter, err := monitor.NewReporter(monitor.Options{
		Endpoint:   cfg.Report.Endpoint,
		Method:     cfg.Report.Method,
		Extensions: enrich.Extensions{Static: cfg.Extensions},
		DeviceProvider: &device.Host{
			NetworkType: cfg.Device.NetworkType,
			Extra:       cfg.Device.Extra,
		},
		Transport: tr,
		Queue: queue.Options{
			CheckDelay:     time.Duration(cfg.Queue.CheckDelayMS) * time.Millisecond,
			MaxPending:     int(cfg.Queue.MaxPending),
			MaxBatchSize:   int(cfg.Queue.MaxBatchSize),
			TracerProvider: tp,
		},
		Filters:   cfg.Filters,
		RateLimit: cfg.RateLimit,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create reporter: %w", err)
	}

	a := &app{
		transport: tr,
		reporter:  reporter,
		errors:    monitor.NewErrorMonitor(reporter),
	}

	if cfg.NetworkSpeed.Enabled {
		timeout := time.Duration(cfg.Transport.TimeoutMS) * time.Millisecond
		client := monitor.NewProbeClient(timeout, nil)
		primary, fallback := monitor.ProbesFor(cfg.NetworkSpeed, client, timeout)
		a.speed, err = monitor.NewNetworkSpeedMonitor(reporter, cfg.NetworkSpeed, primary, fallback, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create network speed monitor: %w", err)
		}
	}

	return a, nil
}

// start launches the periodic producers
func (a *app) start(ctx context.Context) error {
	if a.speed != nil {
		if err := a.speed.Start(ctx); err != nil {
			return fmt.Errorf("failed to start network speed monitor: %w", err)
		}
	}
	return nil
}

// shutdown stops producers, then delivers what is pending
func (a *app) shutdown(ctx context.Context) error {
	if a.speed != nil {
		a.speed.Stop()
	}
	return a.reporter.Close(ctx)
}

// initializeLogger sets up the global logger from the logging config
func initializeLogger(cfg *config.Config, quiet bool) error {
	logger = log.NewLogger()

	var configArgs []string

	if quiet {
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=false",
			"level=255")

		return logger.InitWithDefaults(configArgs...)
	}

	levelValue, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	configArgs = append(configArgs, fmt.Sprintf("level=%d", levelValue))

	switch cfg.Logging.Output {
	case "none":
		configArgs = append(configArgs, "disable_file=true", "enable_stdout=false")

	case "stdout":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stdout")

	case "stderr":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stderr")

	case "file":
		configArgs = append(configArgs, "enable_stdout=false")
		configureFileLogging(&configArgs, cfg)

	default:
		return fmt.Errorf("invalid log output mode: %s", cfg.Logging.Output)
	}

	if cfg.Logging.Format != "" {
		configArgs = append(configArgs, fmt.Sprintf("format=%s", cfg.Logging.Format))
	}

	return logger.InitWithDefaults(configArgs...)
}

func configureFileLogging(configArgs *[]string, cfg *config.Config) {
	if cfg.Logging.File != nil {
		*configArgs = append(*configArgs,
			fmt.Sprintf("directory=%s", cfg.Logging.File.Directory),
			fmt.Sprintf("name=%s", cfg.Logging.File.Name),
			fmt.Sprintf("max_size_mb=%d", cfg.Logging.File.MaxSizeMB),
			fmt.Sprintf("max_total_size_mb=%d", cfg.Logging.File.MaxTotalSizeMB))

		if cfg.Logging.File.RetentionHours > 0 {
			*configArgs = append(*configArgs,
				fmt.Sprintf("retention_period_hrs=%.1f", cfg.Logging.File.RetentionHours))
		}
	}
}

func shutdownLogger() {
	if logger != nil {
		if err := logger.Shutdown(2 * time.Second); err != nil {
			Error("Logger shutdown error: %v\n", err)
		}
	}
}
