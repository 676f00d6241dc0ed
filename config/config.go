// Package config loads engine configuration from TOML.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the tunable limits and switches of one engine instance.
type Config struct {
	// MaxCallDepth bounds nested closure calls and imports before the
	// evaluation aborts with a recursion error.
	MaxCallDepth int `toml:"max_call_depth"`

	// MaxIterations bounds the total loop iterations of one
	// evaluation.
	MaxIterations int `toml:"max_iterations"`

	// Trace enables per-instruction VM tracing through the logger.
	Trace bool `toml:"trace"`

	// LogLevel is the commonlog verbosity (0 = errors only).
	LogLevel int `toml:"log_level"`

	// CachePath is the sqlite file for the compiled-module cache.
	// Empty disables the cache.
	CachePath string `toml:"cache_path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		MaxCallDepth:  64,
		MaxIterations: 10_000_000,
	}
}

// Load reads a TOML config file, filling unset fields with defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %q: %w", path, err)
	}
	if cfg.MaxCallDepth <= 0 {
		cfg.MaxCallDepth = Default().MaxCallDepth
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = Default().MaxIterations
	}
	return cfg, nil
}
