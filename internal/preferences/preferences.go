// Package preferences stores per-user settings for the tracker CLI
package preferences

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
)

// Theme names accepted by Validate
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Settings is built explicitly and handed to whoever needs it
type Settings struct {
	AutosaveIntervalMinutes int    `toml:"autosave_interval"` // 0 disables autosave
	Theme                   string `toml:"theme"`
	StreamerMode            bool   `toml:"streamer_mode"` // hide NPC hit points and notes
	LastEncounterPath       string `toml:"last_encounter_path"`
}

// Defaults returns the settings used when no file exists
func Defaults() Settings {
	return Settings{
		AutosaveIntervalMinutes: 2,
		Theme:                   ThemeLight,
	}
}

// AutosaveInterval returns the autosave period, or 0 when autosave is off
func (s Settings) AutosaveInterval() time.Duration {
	if s.AutosaveIntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(s.AutosaveIntervalMinutes) * time.Minute
}

// Validate rejects values the CLI cannot honor
func (s Settings) Validate() error {
	if s.AutosaveIntervalMinutes < 0 {
		return dnderr.Validationf("autosave interval cannot be negative, got %d", s.AutosaveIntervalMinutes)
	}
	if s.Theme != ThemeLight && s.Theme != ThemeDark {
		return dnderr.Validationf("unknown theme %q", s.Theme)
	}
	return nil
}

// Load reads settings from path. Keys missing from the file keep their
// defaults and a missing file yields Defaults.
func Load(path string) (Settings, error) {
	s := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return Settings{}, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to read preferences").
			WithMeta("path", path)
	}

	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, dnderr.WrapWithCode(err, dnderr.CodeValidation, "failed to parse preferences").
			WithMeta("path", path)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	return s, nil
}

// Save writes settings to path, creating its directory if needed
func Save(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to encode preferences")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to create preferences directory").
			WithMeta("path", path)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to write preferences").
			WithMeta("path", path)
	}

	return nil
}

// DefaultPath is the preferences file under the user's config directory
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "initiative-tracker", "preferences.toml")
}
