package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	mockdice "github.com/KirkDiggler/initiative-tracker/internal/dice/mock"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/KirkDiggler/initiative-tracker/internal/events"
	"github.com/KirkDiggler/initiative-tracker/internal/handlers/cli"
	"github.com/KirkDiggler/initiative-tracker/internal/preferences"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories/encounters"
	"github.com/KirkDiggler/initiative-tracker/internal/roster"
	"github.com/KirkDiggler/initiative-tracker/internal/services/encounter"
	"github.com/KirkDiggler/initiative-tracker/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type HandlerTestSuite struct {
	suite.Suite
	ctx       context.Context
	dir       string
	roller    *mockdice.ManualMockRoller
	bus       *events.Bus
	library   *roster.Library
	svc       encounter.Service
	out       *bytes.Buffer
	handler   *cli.Handler
	encounter string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.dir = s.T().TempDir()
	s.roller = mockdice.NewManualMockRoller()
	s.bus = events.NewBus(nil)
	s.out = &bytes.Buffer{}
	s.library = testutils.CreateTestLibrary()

	s.svc = encounter.NewService(&encounter.ServiceConfig{
		Repository: encounters.NewInMemoryRepository(),
		Roller:     s.roller,
		Library:    s.library,
		EventBus:   s.bus,
	})

	enc, err := s.svc.CreateEncounter(s.ctx, &encounter.CreateEncounterInput{
		Name:            "Goblin Cave",
		SkipUnconscious: true,
	})
	s.Require().NoError(err)
	s.encounter = enc.ID

	s.handler = cli.NewHandler(&cli.HandlerConfig{
		Service:         s.svc,
		Library:         s.library,
		EncounterID:     enc.ID,
		Preferences:     preferences.Defaults(),
		PreferencesPath: filepath.Join(s.dir, "preferences.toml"),
		DataDir:         s.dir,
		Out:             s.out,
		Color:           true,
	})
}

// run executes each line and returns what was printed
func (s *HandlerTestSuite) run(lines ...string) string {
	s.out.Reset()
	for _, line := range lines {
		_, err := s.handler.Execute(s.ctx, line)
		s.Require().NoError(err, line)
	}
	return s.out.String()
}

func (s *HandlerTestSuite) TestAddAndList() {
	out := s.run(`add Rogue 19 4 pc`, `add "Goblin Boss" 14`)
	s.Contains(out, "Added Rogue (id 1)")
	s.Contains(out, "Added Goblin Boss (id 2)")

	out = s.run("list")
	s.Contains(out, "Goblin Cave, round 1")
	s.Contains(out, "Rogue (PC)")
	s.Contains(out, "Goblin Boss")
	s.Contains(out, ">")
	s.Contains(out, "\x1b[")
}

func (s *HandlerTestSuite) TestListWithoutColor() {
	h := cli.NewHandler(&cli.HandlerConfig{
		Service:     s.svc,
		EncounterID: s.encounter,
		Out:         s.out,
	})
	s.run("add Rogue 19")

	s.out.Reset()
	_, err := h.Execute(s.ctx, "list")
	s.Require().NoError(err)
	s.Contains(s.out.String(), "Rogue")
	s.NotContains(s.out.String(), "\x1b[")
}

func (s *HandlerTestSuite) TestListWithoutCombatants() {
	s.Equal("Goblin Cave, round 1\n  no combatants\n", s.run("list"))
}

func (s *HandlerTestSuite) TestNextAndPrev() {
	unsubscribe := s.handler.Subscribe(s.bus)
	defer unsubscribe()

	s.run("add Rogue 19", "add Fighter 15")

	s.Equal("Round 1: Fighter's turn\n", s.run("next"))

	out := s.run("next")
	s.Contains(out, "=== Round 2 ===")
	s.Contains(out, "Round 2: Rogue's turn")

	s.Equal("Round 1: Fighter's turn\n", s.run("prev"))
}

func (s *HandlerTestSuite) TestNextWithoutCombatants() {
	s.Equal("No combatants yet\n", s.run("next"))
}

func (s *HandlerTestSuite) TestConditionsExpire() {
	unsubscribe := s.handler.Subscribe(s.bus)
	defer unsubscribe()

	s.run("add Rogue 19", "add Fighter 15")

	out := s.run("cond 1 heavily poisoned 1")
	s.Contains(out, "Applied heavily poisoned for 1 rounds")

	out = s.run("next")
	s.Contains(out, "Rogue is no longer heavily poisoned")

	_, err := s.handler.Execute(s.ctx, "uncond 1 heavily poisoned")
	s.True(dnderr.IsNotFound(err))
}

func (s *HandlerTestSuite) TestRollInitiative() {
	s.run("add Rogue 10 4 pc")
	s.roller.SetRolls([]int{6, 17})

	out := s.run("roll 1 adv")
	s.Contains(out, "Initiative 21 [6,17] +4")
}

func (s *HandlerTestSuite) TestRollAll() {
	s.run("add Rogue 10 4 pc", "add Fighter 10 1 pc")
	s.roller.SetRolls([]int{2, 15})

	out := s.run("roll all")
	s.Contains(out, "Rolled initiative for 2 combatants")
	s.Contains(out, "Fighter (PC)")
	s.Zero(s.roller.Remaining())
}

func (s *HandlerTestSuite) TestRosterCommands() {
	out := s.run("char Goblin 2", "group Ambush")
	s.Contains(out, "Added Goblin 1 (id 1)")
	s.Contains(out, "Added Goblin 2 (id 2)")
	s.Contains(out, "Added Bandit 1 (id 6)")

	out = s.run("roster #party")
	s.Contains(out, "Fighter")
	s.Contains(out, "Rogue")
	s.NotContains(out, "Goblin")

	out = s.run("roster")
	s.Contains(out, "group: Ambush")
}

func (s *HandlerTestSuite) TestNaming() {
	s.Equal("Copies are named Goblin 1, Goblin 2, ...\n", s.run("naming"))

	out := s.run(`naming "%name #%index" 0 3`)
	s.Equal("Copies are named Goblin #000, Goblin #001, ...\n", out)

	out = s.run("group Ambush")
	s.Contains(out, "Added Goblin #000 (id 1)")
	s.Contains(out, "Added Goblin #002 (id 3)")
	s.Contains(out, "Added Bandit #000 (id 4)")

	_, err := s.handler.Execute(s.ctx, "naming Minion")
	s.True(dnderr.IsInvalidArgument(err))
	_, err = s.handler.Execute(s.ctx, `naming "%name %index" 1 -2`)
	s.True(dnderr.IsInvalidArgument(err))
	s.Equal("%name #%index", s.library.Naming().Pattern)
}

func (s *HandlerTestSuite) TestDeathSaves() {
	s.run("add Rogue 19 4 pc", "add Goblin 12")

	out := s.run("down 1", "save-death 1 f")
	s.Contains(out, "1 is down")
	s.Contains(out, "Death saves: 0 successes, 1 failures")

	out = s.run("save-death 1 s", "save-death 1 s", "save-death 1 s")
	s.Contains(out, "Stable (3 successes, 1 failures)")

	out = s.run("list")
	s.Contains(out, "[stable]")

	_, err := s.handler.Execute(s.ctx, "save-death 2 s")
	s.True(dnderr.IsInvalidArgument(err))
}

func (s *HandlerTestSuite) TestUpdateCommands() {
	s.run("add Goblin 12")

	out := s.run("hp 1 7", "init 1 18", "note 1 Nimble Escape")
	s.Contains(out, "Goblin hit points is now 7")
	s.Contains(out, "Goblin initiative is now 18")
	s.Contains(out, "Updated notes for Goblin")

	out = s.run("list")
	s.Contains(out, "Nimble Escape")
}

func (s *HandlerTestSuite) TestStreamerModeHidesNPCDetails() {
	s.run("add Goblin 12", "hp 1 7", "note 1 has the key")

	s.Contains(s.run("streamer on"), "Streamer mode on")

	out := s.run("list")
	s.Contains(out, "?")
	s.NotContains(out, "has the key")

	saved, err := preferences.Load(filepath.Join(s.dir, "preferences.toml"))
	s.Require().NoError(err)
	s.True(saved.StreamerMode)
}

func (s *HandlerTestSuite) TestTheme() {
	s.run("add Rogue 19")
	light := s.run("list")

	s.Contains(s.run("theme dark"), "Theme set to dark")
	s.Equal(preferences.ThemeDark, s.handler.Preferences().Theme)
	s.NotEqual(light, s.run("list"))

	_, err := s.handler.Execute(s.ctx, "theme purple")
	s.True(dnderr.IsInvalidArgument(err))
	s.Equal(preferences.ThemeDark, s.handler.Preferences().Theme)
}

func (s *HandlerTestSuite) TestUndoRedo() {
	s.run("add Rogue 19", "add Fighter 15", "next")

	s.Equal("Undid next turn\n", s.run("undo"))
	s.Equal("Redid next turn\n", s.run("redo"))

	_, err := s.handler.Execute(s.ctx, "redo")
	s.True(dnderr.IsInvalidArgument(err))
}

func (s *HandlerTestSuite) TestSaveAndLoad() {
	path := filepath.Join(s.dir, "encounters", "cave.json")
	s.run("add Rogue 19", "add Fighter 15")

	s.Contains(s.run("save "+path), "Saved to "+path)
	s.Equal(path, s.handler.SavePath())
	s.FileExists(path)

	s.run("remove 2")
	out := s.run("load " + path)
	s.Contains(out, "Loaded "+path)
	s.Contains(out, "Fighter")

	saved, err := preferences.Load(filepath.Join(s.dir, "preferences.toml"))
	s.Require().NoError(err)
	s.Equal(path, saved.LastEncounterPath)
}

func (s *HandlerTestSuite) TestSaveDefaultsToDataDir() {
	s.run("add Rogue 19")

	expected := filepath.Join(s.dir, s.encounter+".json")
	s.Equal(expected, s.handler.SavePath())
	s.Contains(s.run("save"), "Saved to "+expected)
}

func (s *HandlerTestSuite) TestErrors() {
	tests := []struct {
		name  string
		line  string
		check func(error) bool
	}{
		{name: "unknown command", line: "fireball", check: dnderr.IsInvalidArgument},
		{name: "unterminated quote", line: `add "Goblin 12`, check: dnderr.IsInvalidArgument},
		{name: "missing initiative", line: "add Goblin", check: dnderr.IsInvalidArgument},
		{name: "bad initiative", line: "add Goblin fast", check: dnderr.IsInvalidArgument},
		{name: "bad id", line: "remove goblin", check: dnderr.IsInvalidArgument},
		{name: "missing combatant", line: "remove 9", check: dnderr.IsNotFound},
		{name: "bad roll mode", line: "roll all sideways", check: dnderr.IsInvalidArgument},
		{name: "streamer needs on or off", line: "streamer maybe", check: dnderr.IsInvalidArgument},
		{name: "nothing to undo", line: "undo", check: dnderr.IsInvalidArgument},
		{name: "import needs a name", line: "import", check: dnderr.IsInvalidArgument},
		{name: "import without monster lookup", line: "import owlbear", check: func(err error) bool {
			return dnderr.GetCode(err) == dnderr.CodeInternal
		}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			quit, err := s.handler.Execute(s.ctx, tt.line)
			s.False(quit)
			s.Require().Error(err)
			s.True(tt.check(err), "unexpected error: %v", err)
		})
	}
}

func (s *HandlerTestSuite) TestHelpListsCommands() {
	out := s.run("help")
	for _, name := range []string{"add", "next", "prev", "roll", "save-death", "undo", "streamer"} {
		s.Contains(out, name)
	}
}

func (s *HandlerTestSuite) TestAutosave() {
	s.run("add Rogue 19")

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() {
		done <- s.handler.Autosave(ctx, 10*time.Millisecond)
	}()

	s.Eventually(func() bool {
		_, err := os.Stat(s.handler.SavePath())
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	s.NoError(<-done)
}

func TestAutosave_Disabled(t *testing.T) {
	h := cli.NewHandler(&cli.HandlerConfig{
		Service: encounter.NewService(&encounter.ServiceConfig{
			Repository: encounters.NewInMemoryRepository(),
			Roller:     mockdice.NewManualMockRoller(),
		}),
		EncounterID: "enc-1",
		Out:         &bytes.Buffer{},
	})

	assert.NoError(t, h.Autosave(context.Background(), 0))
}

func TestAutosave_ReportsFailures(t *testing.T) {
	out := &bytes.Buffer{}
	h := cli.NewHandler(&cli.HandlerConfig{
		Service: encounter.NewService(&encounter.ServiceConfig{
			Repository: encounters.NewInMemoryRepository(),
			Roller:     mockdice.NewManualMockRoller(),
		}),
		EncounterID: "missing",
		DataDir:     t.TempDir(),
		Out:         out,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- h.Autosave(ctx, 10*time.Millisecond)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Contains(t, out.String(), "Autosave to "+h.SavePath()+" failed")
}

func TestExecute_Quit(t *testing.T) {
	h := cli.NewHandler(&cli.HandlerConfig{
		Service: encounter.NewService(&encounter.ServiceConfig{
			Repository: encounters.NewInMemoryRepository(),
			Roller:     mockdice.NewManualMockRoller(),
		}),
		EncounterID: "enc-1",
		Out:         &bytes.Buffer{},
	})

	for _, line := range []string{"quit", "EXIT", "  quit  "} {
		quit, err := h.Execute(context.Background(), line)
		require.NoError(t, err)
		assert.True(t, quit, line)
	}
}

func TestNewHandler_Panics(t *testing.T) {
	svc := encounter.NewService(&encounter.ServiceConfig{
		Repository: encounters.NewInMemoryRepository(),
		Roller:     mockdice.NewManualMockRoller(),
	})

	assert.Panics(t, func() { cli.NewHandler(nil) })
	assert.Panics(t, func() { cli.NewHandler(&cli.HandlerConfig{EncounterID: "enc-1", Out: &bytes.Buffer{}}) })
	assert.Panics(t, func() { cli.NewHandler(&cli.HandlerConfig{Service: svc, Out: &bytes.Buffer{}}) })
	assert.Panics(t, func() { cli.NewHandler(&cli.HandlerConfig{Service: svc, EncounterID: "enc-1"}) })
}
