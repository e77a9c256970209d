// FILE: src/internal/config/logging.go
package config

// LogConfig configures pulse's own diagnostic log, kept apart from the signals it reports
type LogConfig struct {
	// "file", "stdout", "stderr" or "none"
	Output string `toml:"output"`
	Level  string `toml:"level"`
	// "txt" or "json"
	Format string `toml:"format"`

	// Seconds between queue status lines on an interactive terminal, 0 disables
	StatusIntervalSeconds int64 `toml:"status_interval_seconds"`

	File *LogFileConfig `toml:"file"`
}

// LogFileConfig applies when Output is "file"
type LogFileConfig struct {
	Directory      string  `toml:"directory"`
	Name           string  `toml:"name"`
	MaxSizeMB      int64   `toml:"max_size_mb"`
	MaxTotalSizeMB int64   `toml:"max_total_size_mb"`
	RetentionHours float64 `toml:"retention_hours"`
}

// DefaultLogConfig logs to stderr, where it stays out of piped stdout
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Output:                "stderr",
		Level:                 "info",
		Format:                "txt",
		StatusIntervalSeconds: 30,
		File: &LogFileConfig{
			Directory:      "./log",
			Name:           "pulse",
			MaxSizeMB:      10,
			MaxTotalSizeMB: 100,
			RetentionHours: 72,
		},
	}
}
