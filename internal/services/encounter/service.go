package encounter

import (
	"context"
	"strings"
	"sync"

	"github.com/KirkDiggler/initiative-tracker/internal/clients/dnd5e"
	"github.com/KirkDiggler/initiative-tracker/internal/dice"
	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/KirkDiggler/initiative-tracker/internal/events"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories/encounters"
	"github.com/KirkDiggler/initiative-tracker/internal/roster"
	"github.com/KirkDiggler/initiative-tracker/internal/uuid"
	"go.uber.org/zap"
)

// DefaultUndoLimit is used when ServiceConfig.UndoLimit is zero
const DefaultUndoLimit = 50

// Service defines the encounter service interface
type Service interface {
	// CreateEncounter creates a new, empty encounter
	CreateEncounter(ctx context.Context, input *CreateEncounterInput) (*combat.Encounter, error)

	// GetEncounter retrieves an encounter by ID
	GetEncounter(ctx context.Context, encounterID string) (*combat.Encounter, error)

	// ListEncounters returns every stored encounter, oldest first
	ListEncounters(ctx context.Context) ([]*combat.Encounter, error)

	// DeleteEncounter removes an encounter and its undo history
	DeleteEncounter(ctx context.Context, encounterID string) error

	// AddCombatant adds a single ad-hoc combatant
	AddCombatant(ctx context.Context, encounterID string, input *AddCombatantInput) (*combat.Combatant, error)

	// AddCharacter adds count copies of a roster character
	AddCharacter(ctx context.Context, encounterID, name string, count int) ([]combat.Combatant, error)

	// AddGroup adds every member of a roster group
	AddGroup(ctx context.Context, encounterID, name string) ([]combat.Combatant, error)

	// AddMonster looks up an SRD monster, remembers it in the roster and adds copies of it
	AddMonster(ctx context.Context, encounterID string, input *AddMonsterInput) ([]combat.Combatant, error)

	// ImportMonsters looks up SRD monsters and remembers them in the roster
	// without adding them to an encounter
	ImportMonsters(ctx context.Context, names []string) ([]roster.Character, error)

	// RemoveCombatant removes a combatant from an encounter
	RemoveCombatant(ctx context.Context, encounterID string, combatantID int) error

	// UpdateCombatant changes the given fields of a combatant
	UpdateCombatant(ctx context.Context, encounterID string, combatantID int, input *UpdateCombatantInput) (*combat.Combatant, error)

	// RollInitiative rolls a d20 plus the dexterity modifier for one combatant
	RollInitiative(ctx context.Context, encounterID string, combatantID int, mode dice.Mode) (*dice.RollResult, error)

	// RollAllInitiative rolls for every combatant and starts the encounter from the top
	RollAllInitiative(ctx context.Context, encounterID string, mode dice.Mode) (map[int]*dice.RollResult, error)

	// NextTurn advances to the next turn
	NextTurn(ctx context.Context, encounterID string) (*TurnResult, error)

	// PreviousTurn moves back one turn
	PreviousTurn(ctx context.Context, encounterID string) (*TurnResult, error)

	// ApplyCondition adds a timed condition to a combatant
	ApplyCondition(ctx context.Context, encounterID string, combatantID int, name string, rounds int) error

	// RemoveCondition removes a condition from a combatant
	RemoveCondition(ctx context.Context, encounterID string, combatantID int, name string) error

	// RecordDeathSave records a death save outcome for an unconscious combatant
	RecordDeathSave(ctx context.Context, encounterID string, combatantID int, outcome DeathSaveOutcome) (combat.DeathSaves, error)

	// KnockOut marks a combatant unconscious
	KnockOut(ctx context.Context, encounterID string, combatantID int) error

	// Revive marks a combatant conscious
	Revive(ctx context.Context, encounterID string, combatantID int) error

	// Undo reverts the most recent change and returns its label
	Undo(ctx context.Context, encounterID string) (string, error)

	// Redo reapplies the most recently undone change and returns its label
	Redo(ctx context.Context, encounterID string) (string, error)

	// ExportFile writes the encounter's turn order to an encounter document
	ExportFile(ctx context.Context, encounterID, path string) error

	// ImportFile replaces the encounter's turn order with an encounter document
	ImportFile(ctx context.Context, encounterID, path string) error
}

// CreateEncounterInput contains data for creating an encounter
type CreateEncounterInput struct {
	Name            string
	SkipUnconscious bool
}

type service struct {
	mu sync.Mutex

	repository    encounters.Repository
	roller        dice.Roller
	library       *roster.Library
	rosterFile    string
	monsterClient dnd5e.Client
	uuidGenerator uuid.Generator
	eventBus      *events.Bus
	clock         encounters.TimeProvider
	logger        *zap.Logger
	undoLimit     int

	histories map[string]*history
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Repository    encounters.Repository
	Roller        dice.Roller
	Library       *roster.Library // Optional, defaults to an empty library
	MonsterClient dnd5e.Client    // Optional, AddMonster fails without it
	// RosterFile receives the roster's characters whenever a monster is
	// imported. Empty keeps imports in memory.
	RosterFile string
	UUIDGenerator uuid.Generator
	EventBus      *events.Bus // Optional
	Clock         encounters.TimeProvider
	Logger        *zap.Logger
	// UndoLimit bounds the undo history per encounter. Zero means
	// DefaultUndoLimit and a negative value disables undo.
	UndoLimit int
}

// NewService creates a new encounter service
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil {
		panic("config is required")
	}
	if cfg.Repository == nil {
		panic("repository is required")
	}
	if cfg.Roller == nil {
		panic("dice roller is required")
	}

	svc := &service{
		repository:    cfg.Repository,
		roller:        cfg.Roller,
		library:       cfg.Library,
		rosterFile:    cfg.RosterFile,
		monsterClient: cfg.MonsterClient,
		uuidGenerator: cfg.UUIDGenerator,
		eventBus:      cfg.EventBus,
		clock:         cfg.Clock,
		logger:        cfg.Logger,
		undoLimit:     cfg.UndoLimit,
		histories:     make(map[string]*history),
	}

	if svc.library == nil {
		svc.library = roster.NewLibrary(nil, nil)
	}
	if svc.uuidGenerator == nil {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}
	if svc.clock == nil {
		svc.clock = encounters.NewRealTimeProvider()
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	svc.logger = svc.logger.Named("encounter")
	switch {
	case svc.undoLimit == 0:
		svc.undoLimit = DefaultUndoLimit
	case svc.undoLimit < 0:
		svc.undoLimit = 0
	}

	return svc
}

// CreateEncounter creates a new, empty encounter
func (s *service) CreateEncounter(ctx context.Context, input *CreateEncounterInput) (*combat.Encounter, error) {
	if input == nil {
		return nil, dnderr.InvalidArgument("input cannot be nil")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, dnderr.InvalidArgument("encounter name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	encounter := combat.NewEncounter(s.uuidGenerator.New(), name, input.SkipUnconscious, s.clock.Now())
	if err := s.repository.Create(ctx, encounter); err != nil {
		return nil, dnderr.Wrap(err, "failed to create encounter")
	}

	s.logger.Info("created encounter",
		zap.String("encounter_id", encounter.ID),
		zap.String("name", encounter.Name))

	return encounter, nil
}

// GetEncounter retrieves an encounter by ID
func (s *service) GetEncounter(ctx context.Context, encounterID string) (*combat.Encounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx, encounterID)
}

// ListEncounters returns every stored encounter, oldest first
func (s *service) ListEncounters(ctx context.Context) ([]*combat.Encounter, error) {
	list, err := s.repository.List(ctx)
	if err != nil {
		return nil, dnderr.Wrap(err, "failed to list encounters")
	}
	return list, nil
}

// DeleteEncounter removes an encounter and its undo history
func (s *service) DeleteEncounter(ctx context.Context, encounterID string) error {
	if strings.TrimSpace(encounterID) == "" {
		return dnderr.InvalidArgument("encounter ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repository.Delete(ctx, encounterID); err != nil {
		return dnderr.Wrapf(err, "failed to delete encounter '%s'", encounterID)
	}
	delete(s.histories, encounterID)

	s.logger.Info("deleted encounter", zap.String("encounter_id", encounterID))
	return nil
}

// load fetches an encounter. Callers hold s.mu.
func (s *service) load(ctx context.Context, encounterID string) (*combat.Encounter, error) {
	if strings.TrimSpace(encounterID) == "" {
		return nil, dnderr.InvalidArgument("encounter ID is required")
	}

	encounter, err := s.repository.Get(ctx, encounterID)
	if err != nil {
		return nil, dnderr.Wrapf(err, "failed to get encounter '%s'", encounterID)
	}

	return encounter, nil
}

// change collects what a mutation wants recorded once it has been persisted
type change struct {
	log    []string
	events []events.Event
	// unchanged marks a call that left the encounter as it was
	unchanged bool
}

func (c *change) logf(entry string) {
	c.log = append(c.log, entry)
}

func (c *change) emit(e events.Event) {
	c.events = append(c.events, e)
}

// mutate runs one use case: load the encounter, apply fn to its tracker,
// persist the result and record it for undo. Events are emitted only after
// the encounter was saved. Nothing is saved when fn fails or marks the
// change as unchanged.
func (s *service) mutate(ctx context.Context, encounterID, label string, fn func(enc *combat.Encounter, t *combat.Tracker, ch *change) error) (*combat.Encounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	encounter, err := s.load(ctx, encounterID)
	if err != nil {
		return nil, err
	}

	tracker, err := encounter.Tracker()
	if err != nil {
		return nil, dnderr.Wrapf(err, "encounter '%s' holds an invalid turn order", encounterID)
	}
	before := encounter.Clone().State

	ch := &change{}
	if err := fn(encounter, tracker, ch); err != nil {
		return nil, err
	}
	if ch.unchanged {
		return encounter, nil
	}

	encounter.Capture(tracker, s.clock.Now())
	for _, entry := range ch.log {
		encounter.AddCombatLogEntry(entry)
	}

	if err := s.repository.Update(ctx, encounter); err != nil {
		return nil, dnderr.Wrapf(err, "failed to save encounter '%s'", encounterID)
	}

	s.historyFor(encounterID).push(historyEntry{
		label:  label,
		before: before,
		after:  encounter.Clone().State,
	}, s.undoLimit)

	s.logger.Debug("applied change",
		zap.String("encounter_id", encounterID),
		zap.String("change", label),
		zap.Int("round", encounter.State.Round))

	for _, e := range ch.events {
		s.publish(e)
	}

	return encounter, nil
}

func (s *service) publish(e events.Event) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Emit(e); err != nil {
		s.logger.Warn("event listener failed",
			zap.String("event", string(e.GetType())),
			zap.String("encounter_id", e.GetEncounterID()),
			zap.Error(err))
	}
}

func base(eventType events.EventType, enc *combat.Encounter, t *combat.Tracker) events.BaseEvent {
	return events.BaseEvent{
		Type:        eventType,
		EncounterID: enc.ID,
		Round:       t.Round(),
	}
}
