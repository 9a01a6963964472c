package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the application
type Config struct {
	Redis       RedisConfig
	Storage     StorageConfig
	DND5E       DND5EConfig
	Logging     LoggingConfig
	Tracker     TrackerConfig
	Preferences string `env:"INITIATIVE_PREFERENCES"` // Empty means preferences.DefaultPath
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// URL selects the Redis encounter store, e.g. redis://localhost:6379/0.
	// Encounters are kept in memory when it is empty.
	URL string `env:"REDIS_URL"`
}

// StorageConfig holds the directories the tracker reads and writes
type StorageConfig struct {
	DataDir   string `env:"INITIATIVE_DATA_DIR" envDefault:"./data"`
	RosterDir string `env:"INITIATIVE_ROSTER_DIR" envDefault:"./roster"`
}

// DND5EConfig holds D&D 5e API configuration
type DND5EConfig struct {
	Timeout time.Duration `env:"DND5E_API_TIMEOUT" envDefault:"10s"`
}

// LoggingConfig selects the zap logger built by NewLogger
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"` // console or json
}

// TrackerConfig holds the encounter defaults
type TrackerConfig struct {
	SkipUnconscious bool `env:"INITIATIVE_SKIP_UNCONSCIOUS" envDefault:"true"`
	UndoLimit       int  `env:"INITIATIVE_UNDO_LIMIT" envDefault:"50"`
}

// UsesRedis reports whether encounters should be stored in Redis
func (c *Config) UsesRedis() bool {
	return c.Redis.URL != ""
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values the environment parser cannot
func (c *Config) Validate() error {
	if c.Tracker.UndoLimit < 0 {
		return fmt.Errorf("INITIATIVE_UNDO_LIMIT must not be negative, got %d", c.Tracker.UndoLimit)
	}
	if c.DND5E.Timeout <= 0 {
		return fmt.Errorf("DND5E_API_TIMEOUT must be positive, got %s", c.DND5E.Timeout)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
