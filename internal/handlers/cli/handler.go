// Package cli turns command lines into encounter service calls and renders
// the results for a terminal.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/KirkDiggler/initiative-tracker/internal/preferences"
	"github.com/KirkDiggler/initiative-tracker/internal/roster"
	"github.com/KirkDiggler/initiative-tracker/internal/services/encounter"
	"go.uber.org/zap"
)

// Handler executes commands against one encounter
type Handler struct {
	service         encounter.Service
	library         *roster.Library
	preferencesPath string
	dataDir         string
	encounterID     string
	logger          *zap.Logger

	outMu    sync.Mutex
	out      io.Writer
	renderer *lipgloss.Renderer

	mu       sync.Mutex
	prefs    preferences.Settings
	savePath string
}

// HandlerConfig holds configuration for the command handler
type HandlerConfig struct {
	Service     encounter.Service
	Library     *roster.Library // Used by the roster command
	EncounterID string
	Preferences preferences.Settings
	// PreferencesPath is where theme and streamer changes are saved.
	// Empty disables saving.
	PreferencesPath string
	// DataDir holds encounter files written without an explicit path
	DataDir string
	Out     io.Writer
	// Color forces ANSI colors. Otherwise colors are used only when Out is a terminal.
	Color  bool
	Logger *zap.Logger
}

// NewHandler creates a new command handler
func NewHandler(cfg *HandlerConfig) *Handler {
	if cfg == nil {
		panic("config is required")
	}
	if cfg.Service == nil {
		panic("encounter service is required")
	}
	if cfg.EncounterID == "" {
		panic("encounter ID is required")
	}
	if cfg.Out == nil {
		panic("output writer is required")
	}

	h := &Handler{
		service:         cfg.Service,
		library:         cfg.Library,
		preferencesPath: cfg.PreferencesPath,
		dataDir:         cfg.DataDir,
		encounterID:     cfg.EncounterID,
		logger:          cfg.Logger,
		out:             cfg.Out,
		renderer:        lipgloss.NewRenderer(cfg.Out),
		prefs:           cfg.Preferences,
		savePath:        cfg.Preferences.LastEncounterPath,
	}
	if cfg.Color {
		h.renderer.SetColorProfile(termenv.ANSI)
	}
	if h.library == nil {
		h.library = roster.NewLibrary(nil, nil)
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.dataDir == "" {
		h.dataDir = "."
	}
	return h
}

// Execute runs a single command line. Blank lines do nothing.
func (h *Handler) Execute(ctx context.Context, line string) (bool, error) {
	args, err := splitArgs(line)
	if err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}

	name := strings.ToLower(args[0])
	cmd, ok := commands[name]
	if !ok {
		return false, dnderr.InvalidArgumentf("unknown command %q, type help for a list", args[0])
	}

	h.logger.Debug("executing command", zap.String("command", name), zap.Int("args", len(args)-1))

	if name == "quit" || name == "exit" {
		return true, nil
	}
	return false, cmd.run(h, ctx, args[1:])
}

// SavePath returns the file the encounter is saved to without an explicit path
func (h *Handler) SavePath() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.savePath != "" {
		return h.savePath
	}
	return filepath.Join(h.dataDir, h.encounterID+".json")
}

func (h *Handler) setSavePath(path string) {
	h.mu.Lock()
	h.savePath = path
	h.prefs.LastEncounterPath = path
	h.mu.Unlock()

	h.savePreferences()
}

// Preferences returns a copy of the current settings
func (h *Handler) Preferences() preferences.Settings {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.prefs
}

func (h *Handler) updatePreferences(fn func(s *preferences.Settings)) error {
	h.mu.Lock()
	updated := h.prefs
	fn(&updated)
	if err := updated.Validate(); err != nil {
		h.mu.Unlock()
		return dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument, "invalid preference")
	}
	h.prefs = updated
	h.mu.Unlock()

	h.savePreferences()
	return nil
}

// savePreferences writes the settings file. Failures are logged; the
// session keeps working with the in-memory settings.
func (h *Handler) savePreferences() {
	if h.preferencesPath == "" {
		return
	}
	if err := preferences.Save(h.preferencesPath, h.Preferences()); err != nil {
		h.logger.Warn("failed to save preferences",
			zap.String("path", h.preferencesPath),
			zap.Error(err))
	}
}

func (h *Handler) printf(format string, args ...any) {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	fmt.Fprintf(h.out, format, args...)
}

// splitArgs splits a command line on spaces. Double quotes group words.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quoted  bool
		started bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case (r == ' ' || r == '\t') && !quoted:
			if started {
				args = append(args, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}

	if quoted {
		return nil, dnderr.InvalidArgument("unterminated quote")
	}
	if started {
		args = append(args, current.String())
	}
	return args, nil
}
