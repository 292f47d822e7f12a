// Package config loads CLI configuration.
//
// Values are resolved in order: built-in defaults, then the optional TOML
// file at ~/.mailtrail/config.toml, then MAILTRAIL_* environment variables.
// The outlook client library takes no configuration from here; only the CLI
// consumes it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds CLI configuration.
type Config struct {
	// Mailbox is the default mailbox identity for commands.
	Mailbox string `toml:"mailbox"`
	// Top is the default page size for activity queries (1 to 1000).
	Top int `toml:"top"`
	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// RequestsPerSecond overrides the client's sustained rate limit.
	RequestsPerSecond float64 `toml:"requests_per_second"`
	// BurstSize overrides the client's rate limit burst.
	BurstSize int `toml:"burst_size"`
	// Format is the default output format: table, json, or csv.
	Format string `toml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Top:            500,
		TimeoutSeconds: 60,
		Format:         "table",
	}
}

// Dir returns the mailtrail configuration directory (~/.mailtrail).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".mailtrail"), nil
}

// Path returns the config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load resolves configuration from defaults, the config file, and the
// environment, in that order.
func Load() (Config, error) {
	cfg := DefaultConfig()

	path, err := Path()
	if err != nil {
		return cfg, err
	}
	if err := loadFile(&cfg, path); err != nil {
		return cfg, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

// loadFile merges the TOML file at path into cfg. A missing file is fine.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides cfg fields from MAILTRAIL_* variables.
func applyEnv(cfg *Config) {
	cfg.Mailbox = getEnvString("MAILTRAIL_MAILBOX", cfg.Mailbox)
	cfg.Top = getEnvInt("MAILTRAIL_TOP", cfg.Top)
	cfg.TimeoutSeconds = getEnvInt("MAILTRAIL_TIMEOUT_SECONDS", cfg.TimeoutSeconds)
	cfg.RequestsPerSecond = getEnvFloat("MAILTRAIL_REQUESTS_PER_SECOND", cfg.RequestsPerSecond)
	cfg.BurstSize = getEnvInt("MAILTRAIL_BURST_SIZE", cfg.BurstSize)
	cfg.Format = getEnvString("MAILTRAIL_FORMAT", cfg.Format)
}

func getEnvString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
