// FILE: src/internal/config/saver.go
package config

import (
	"fmt"
	"os"

	lconfig "github.com/lixenwraith/config"
)

// SaveToFile writes the configuration as TOML. A file holding a signing key is
// left readable by the owner only.
func (c *Config) SaveToFile(path string) error {
	if path == "" {
		return fmt.Errorf("cannot save config: path is empty")
	}

	lcfg, err := lconfig.NewBuilder().
		WithFile(path).
		WithTarget(c).
		WithFileFormat("toml").
		Build()
	if err != nil {
		return fmt.Errorf("failed to create config builder: %w", err)
	}

	if err := lcfg.Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if c.Transport.Auth != nil && c.Transport.Auth.SigningKey != "" {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("failed to restrict config permissions: %w", err)
		}
	}

	return nil
}

// Default returns the built-in configuration
func Default() *Config {
	return defaults()
}
