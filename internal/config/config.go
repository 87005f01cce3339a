// Package config defines process configuration and how it is loaded.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// StoreDriver selects the period store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// BackupsToKeep bounds the previous versions retained per period.
	BackupsToKeep int `koanf:"backups_to_keep"`

	// SaveDebounceMS is the quiet period before an edited period is written.
	SaveDebounceMS int `koanf:"save_debounce_ms"`

	// SaveQueueSize bounds the in-memory save queue.
	SaveQueueSize int `koanf:"save_queue_size"`

	// SeedFile is an optional YAML or JSON fixture imported at startup.
	SeedFile string `koanf:"seed_file"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		StoreDriver:    "memory",
		SQLitePath:     "resplan.db",
		BackupsToKeep:  10,
		SaveDebounceMS: 2000,
		SaveQueueSize:  1024,
	}
}

// SaveDebounce returns SaveDebounceMS as a duration.
func (c *Config) SaveDebounce() time.Duration {
	return time.Duration(c.SaveDebounceMS) * time.Millisecond
}

// Validate checks field values, wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q must be one of debug, info, warn, error", ErrInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q must be text or json", ErrInvalidConfig, c.LogFormat)
	}
	switch c.StoreDriver {
	case "memory":
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty for the sqlite driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: store_driver %q must be memory or sqlite", ErrInvalidConfig, c.StoreDriver)
	}
	if c.BackupsToKeep < 1 {
		return fmt.Errorf("%w: backups_to_keep must be at least 1", ErrInvalidConfig)
	}
	if c.SaveDebounceMS < 0 {
		return fmt.Errorf("%w: save_debounce_ms must not be negative", ErrInvalidConfig)
	}
	if c.SaveQueueSize < 1 {
		return fmt.Errorf("%w: save_queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}
