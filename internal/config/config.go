// Package config resolves CLI defaults from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the CLI defaults a user can pin in ~/.stampz.yaml.
type Config struct {
	File             string `yaml:"file"`
	K                int    `yaml:"k"`
	Seed             int64  `yaml:"seed"`
	LockRetries      int    `yaml:"lock_retries"`
	LockRetryDelayMS int    `yaml:"lock_retry_delay_ms"`
	LogFormat        string `yaml:"log_format"` // "text" or "json"
	LogLevel         string `yaml:"log_level"`  // "debug", "info", "warn", "error"
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		K:                2,
		Seed:             42,
		LockRetries:      10,
		LockRetryDelayMS: 200,
		LogFormat:        "text",
		LogLevel:         "warn",
	}
}

// DefaultPath returns ~/.stampz.yaml, or "" when the home directory is
// unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".stampz.yaml")
}

// Load reads the YAML file at path over the defaults. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
