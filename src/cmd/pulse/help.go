// FILE: src/cmd/pulse/help.go
package main

const helpText = `pulse: client-side telemetry reporter.

Usage:
  pulse [command] [options]
  pulse [options]

Commands:
  send                     Report signals read from stdin, flush and exit
  config <path>            Write the effective configuration to a TOML file
  version                  Display version information
  help                     Display this help message

Application Control:
  -c, --config <path>      Path to configuration file (default: ~/.config/pulse.toml)
      --endpoint <url>     Collector endpoint (overrides config)
      --log-level <level>  debug, info, warn, error
      --log-output <mode>  file, stdout, stderr, none
      --stdin              Also report signals read from stdin while running
      --trace              Export queue flush spans over OTLP gRPC
  -q, --quiet              Suppress all console output, including errors
  -v, --version            Display version information and exit
  -h, --help               Display this help message and exit

Configuration Sources (Precedence: CLI > Env > File > Defaults):
  Any config key can be set as --<section>.<key>=<value> or PULSE_<SECTION>_<KEY>.

Signals:
  SIGHUP                   Reload filter patterns and flush the queue now
  SIGUSR1                  Run a network speed measurement now
  SIGINT, SIGTERM          Flush and exit

Input lines for send/--stdin are JSON signals
  {"category":"js_error","level":"error","message":"...","url":"..."}
or plain text, reported as custom info signals.

Examples:
  # Run the agent with network speed probing
  pulse --network_speed.enabled=true --endpoint https://collector.example.com/report

  # Pipe application errors to the collector
  tail -F app.err | pulse --stdin

  # Write the default configuration
  pulse config ~/.config/pulse.toml
`
