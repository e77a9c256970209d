// FILE: src/cmd/pulse/commands.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"pulse/src/internal/config"
	"pulse/src/internal/monitor"
	"pulse/src/internal/version"
)

// Handles subcommand routing before main app initialization
type CommandRouter struct {
	commands map[string]CommandHandler
}

// Defines the interface for subcommands
type CommandHandler interface {
	Execute(args []string) error
	Description() string
}

// Creates and initializes the command router
func NewCommandRouter() *CommandRouter {
	router := &CommandRouter{
		commands: make(map[string]CommandHandler),
	}

	router.commands["send"] = &sendCommand{}
	router.commands["config"] = &configCommand{}
	router.commands["version"] = &versionCommand{}
	router.commands["help"] = &helpCommand{}

	return router
}

// Route executes a subcommand if args name one. It reports whether one ran.
func (r *CommandRouter) Route(args []string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}

	cmdName := args[0]
	if handler, exists := r.commands[cmdName]; exists {
		return true, handler.Execute(args[1:])
	}

	// Looks like a mistyped command rather than a flag
	if !strings.HasPrefix(cmdName, "-") {
		return true, fmt.Errorf("unknown command: %s", cmdName)
	}
	return false, nil
}

type helpCommand struct{}

func (c *helpCommand) Execute(args []string) error {
	fmt.Print(helpText)
	return nil
}

func (c *helpCommand) Description() string {
	return "Display help information"
}

type versionCommand struct{}

func (c *versionCommand) Execute(args []string) error {
	fmt.Println(version.String())
	return nil
}

func (c *versionCommand) Description() string {
	return "Show version information"
}

// configCommand writes the effective configuration to a file
type configCommand struct{}

func (c *configCommand) Execute(args []string) error {
	if len(args) == 0 || args[0] == "" || strings.HasPrefix(args[0], "-") {
		return fmt.Errorf("usage: pulse config <path> [options]")
	}
	path := args[0]

	cfg, _, err := loadConfig(args[1:])
	if err != nil {
		return err
	}
	if err := cfg.SaveToFile(path); err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", path)
	return nil
}

func (c *configCommand) Description() string {
	return "Write the effective configuration"
}

// sendCommand reports stdin lines once and exits after delivering them
type sendCommand struct{}

func (c *sendCommand) Execute(args []string) error {
	cfg, flagCfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	InitOutputHandler(flagCfg.Quiet)
	if err := initializeLogger(cfg, flagCfg.Quiet); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer shutdownLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := bootstrap(cfg)
	if err != nil {
		return err
	}

	n, readErr := monitor.ReadSignals(ctx, os.Stdin, a.reporter)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := a.reporter.Close(shutdownCtx); err != nil {
		return err
	}

	stats := a.reporter.GetStats()
	logger.Info("msg", "Signals sent",
		"component", "main",
		"lines", n,
		"stats", stats)
	PrintSendSummary(n, stats)
	return readErr
}

func (c *sendCommand) Description() string {
	return "Report stdin signals and exit"
}

// loadConfig parses flags and loads configuration with them applied
func loadConfig(args []string) (*config.Config, *FlagConfig, error) {
	flagCfg, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}

	if flagCfg.ConfigFile != "" {
		os.Setenv("PULSE_CONFIG_FILE", flagCfg.ConfigFile)
	}

	cfg, err := config.Load(args)
	if err != nil {
		return nil, nil, err
	}

	if flagCfg.Endpoint != "" {
		cfg.Report.Endpoint = flagCfg.Endpoint
	}
	if cfg.Logging == nil {
		cfg.Logging = config.DefaultLogConfig()
	}
	if flagCfg.LogLevel != "" {
		cfg.Logging.Level = flagCfg.LogLevel
	}
	if flagCfg.LogOutput != "" {
		cfg.Logging.Output = flagCfg.LogOutput
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, err
	}

	return cfg, flagCfg, nil
}
