// FILE: src/cmd/pulse/signals.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lixenwraith/log"
)

// Manages OS signals
type SignalHandler struct {
	app     *app
	args    []string
	logger  *log.Logger
	sigChan chan os.Signal
}

// Creates a signal handler. args are re-read on SIGHUP to reload filters.
func NewSignalHandler(a *app, args []string, logger *log.Logger) *SignalHandler {
	sh := &SignalHandler{
		app:     a,
		args:    args,
		logger:  logger,
		sigChan: make(chan os.Signal, 1),
	}

	signal.Notify(sh.sigChan,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,  // Reload filters, flush now
		syscall.SIGUSR1, // Measure network speed now
	)

	return sh
}

// Handle serves control signals until a termination signal arrives or ctx ends
func (sh *SignalHandler) Handle(ctx context.Context) os.Signal {
	for {
		select {
		case sig := <-sh.sigChan:
			switch sig {
			case syscall.SIGHUP:
				fired := sh.app.reporter.Queue().Fire()
				sh.logger.Info("msg", "Flush signal received",
					"signal", sig,
					"fired", fired)
				sh.reloadFilters()
			case syscall.SIGUSR1:
				if sh.app.speed == nil {
					sh.logger.Warn("msg", "Network speed monitor disabled, ignoring signal",
						"signal", sig)
					continue
				}
				sh.logger.Info("msg", "Measure signal received",
					"signal", sig)
				go func() {
					defer sh.app.errors.Recover()
					sh.app.speed.Measure(ctx)
				}()
			default:
				return sig
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Cleans up signal handling
func (sh *SignalHandler) Stop() {
	signal.Stop(sh.sigChan)
	close(sh.sigChan)
}

// reloadFilters re-reads configuration and applies new filter patterns
func (sh *SignalHandler) reloadFilters() {
	cfg, _, err := loadConfig(sh.args)
	if err != nil {
		sh.logger.Warn("msg", "Config reload failed, keeping current filters",
			"error", err)
		return
	}
	if err := sh.app.reporter.ReloadFilters(cfg.Filters); err != nil {
		sh.logger.Warn("msg", "Filter reload rejected",
			"error", err)
	}
}
