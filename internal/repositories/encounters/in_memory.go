package encounters

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
)

type inMemoryRepository struct {
	mu           sync.RWMutex
	encounters   map[string]*combat.Encounter
	timeProvider TimeProvider
}

// NewInMemoryRepository creates a new in-memory encounter repository
func NewInMemoryRepository() Repository {
	return NewInMemoryRepositoryWithClock(NewRealTimeProvider())
}

// NewInMemoryRepositoryWithClock creates an in-memory repository that stamps
// records with the given clock
func NewInMemoryRepositoryWithClock(timeProvider TimeProvider) Repository {
	return &inMemoryRepository{
		encounters:   make(map[string]*combat.Encounter),
		timeProvider: timeProvider,
	}
}

// Create stores a new encounter
func (r *inMemoryRepository) Create(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil {
		return dnderr.InvalidArgument("encounter cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.encounters[encounter.ID]; exists {
		return dnderr.AlreadyExistsf("encounter with ID %s already exists", encounter.ID)
	}

	now := r.timeProvider.Now()
	encounter.CreatedAt = now
	encounter.UpdatedAt = now
	r.encounters[encounter.ID] = encounter.Clone()

	return nil
}

// Get retrieves an encounter by ID
func (r *inMemoryRepository) Get(ctx context.Context, id string) (*combat.Encounter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	encounter, exists := r.encounters[id]
	if !exists {
		return nil, encounterNotFound(id)
	}

	return encounter.Clone(), nil
}

// Update modifies an existing encounter
func (r *inMemoryRepository) Update(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil {
		return dnderr.InvalidArgument("encounter cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.encounters[encounter.ID]; !exists {
		return encounterNotFound(encounter.ID)
	}

	encounter.UpdatedAt = r.timeProvider.Now()
	r.encounters[encounter.ID] = encounter.Clone()
	return nil
}

// Delete removes an encounter
func (r *inMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.encounters[id]; !exists {
		return encounterNotFound(id)
	}

	delete(r.encounters, id)
	return nil
}

// List returns every stored encounter, oldest first
func (r *inMemoryRepository) List(ctx context.Context) ([]*combat.Encounter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*combat.Encounter, 0, len(r.encounters))
	for _, encounter := range r.encounters {
		out = append(out, encounter.Clone())
	}
	slices.SortFunc(out, compareCreated)

	return out, nil
}

func compareCreated(a, b *combat.Encounter) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func encounterNotFound(id string) error {
	return dnderr.NotFoundf("encounter %s not found", id).WithMeta("encounter_id", id)
}
