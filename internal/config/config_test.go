package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/KirkDiggler/initiative-tracker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REDIS_URL",
		"INITIATIVE_DATA_DIR",
		"INITIATIVE_ROSTER_DIR",
		"INITIATIVE_PREFERENCES",
		"DND5E_API_TIMEOUT",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"INITIATIVE_SKIP_UNCONSCIOUS",
		"INITIATIVE_UNDO_LIMIT",
	} {
		// Setenv restores the original value on cleanup
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.False(t, cfg.UsesRedis())
	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.Equal(t, "./roster", cfg.Storage.RosterDir)
	assert.Equal(t, 10*time.Second, cfg.DND5E.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.True(t, cfg.Tracker.SkipUnconscious)
	assert.Equal(t, 50, cfg.Tracker.UndoLimit)
	assert.Empty(t, cfg.Preferences)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("INITIATIVE_DATA_DIR", "/var/lib/initiative")
	t.Setenv("DND5E_API_TIMEOUT", "3s")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("INITIATIVE_SKIP_UNCONSCIOUS", "false")
	t.Setenv("INITIATIVE_UNDO_LIMIT", "5")
	t.Setenv("INITIATIVE_PREFERENCES", "/tmp/prefs.toml")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.UsesRedis())
	assert.Equal(t, "redis://localhost:6379/2", cfg.Redis.URL)
	assert.Equal(t, "/var/lib/initiative", cfg.Storage.DataDir)
	assert.Equal(t, 3*time.Second, cfg.DND5E.Timeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Tracker.SkipUnconscious)
	assert.Equal(t, 5, cfg.Tracker.UndoLimit)
	assert.Equal(t, "/tmp/prefs.toml", cfg.Preferences)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unparseable undo limit", key: "INITIATIVE_UNDO_LIMIT", value: "lots"},
		{name: "negative undo limit", key: "INITIATIVE_UNDO_LIMIT", value: "-1"},
		{name: "zero timeout", key: "DND5E_API_TIMEOUT", value: "0s"},
		{name: "unknown log format", key: "LOG_FORMAT", value: "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		enabled zapcore.Level
		skipped zapcore.Level
	}{
		{
			name:    "console debug",
			cfg:     config.LoggingConfig{Level: "debug", Format: "console"},
			enabled: zapcore.DebugLevel,
			skipped: zapcore.DebugLevel - 1,
		},
		{
			name:    "json warn",
			cfg:     config.LoggingConfig{Level: "warn", Format: "json"},
			enabled: zapcore.WarnLevel,
			skipped: zapcore.InfoLevel,
		},
		{
			name:    "unknown level falls back to info",
			cfg:     config.LoggingConfig{Level: "chatty", Format: "console"},
			enabled: zapcore.InfoLevel,
			skipped: zapcore.DebugLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := config.NewLogger(tt.cfg)
			require.NoError(t, err)

			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.skipped))
		})
	}
}
