package services

import (
	"github.com/KirkDiggler/initiative-tracker/internal/clients/dnd5e"
	"github.com/KirkDiggler/initiative-tracker/internal/dice"
	"github.com/KirkDiggler/initiative-tracker/internal/events"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories/encounters"
	"github.com/KirkDiggler/initiative-tracker/internal/roster"
	encounterService "github.com/KirkDiggler/initiative-tracker/internal/services/encounter"
	"go.uber.org/zap"
)

// Provider holds all service instances
type Provider struct {
	EncounterService encounterService.Service
	EventBus         *events.Bus
	Library          *roster.Library
}

// ProviderConfig holds configuration for creating services
type ProviderConfig struct {
	DNDClient           dnd5e.Client // Optional, monsters cannot be added without it
	EncounterRepository encounters.Repository
	Roller              dice.Roller
	Library             *roster.Library
	RosterFile          string // Optional, imported monsters stay in memory without it
	EventBus            *events.Bus
	Logger              *zap.Logger
	UndoLimit           int
}

// NewProvider creates a new service provider with all services initialized
func NewProvider(cfg *ProviderConfig) *Provider {
	// Use in-memory repository if none provided
	repo := cfg.EncounterRepository
	if repo == nil {
		repo = encounters.NewInMemoryRepository()
	}

	roller := cfg.Roller
	if roller == nil {
		roller = dice.NewRandomRoller()
	}

	library := cfg.Library
	if library == nil {
		library = roster.NewLibrary(nil, nil)
	}

	bus := cfg.EventBus
	if bus == nil {
		bus = events.NewBus(cfg.Logger)
	}

	encService := encounterService.NewService(&encounterService.ServiceConfig{
		Repository:    repo,
		Roller:        roller,
		Library:       library,
		RosterFile:    cfg.RosterFile,
		MonsterClient: cfg.DNDClient,
		EventBus:      bus,
		Logger:        cfg.Logger,
		UndoLimit:     cfg.UndoLimit,
	})

	return &Provider{
		EncounterService: encService,
		EventBus:         bus,
		Library:          library,
	}
}
