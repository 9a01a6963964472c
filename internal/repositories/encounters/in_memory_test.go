package encounters_test

import (
	"context"
	"testing"
	"time"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories/encounters"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories/encounters/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestInMemoryRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockTimeProvider(ctrl)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	updated := created.Add(time.Minute)
	gomock.InOrder(
		clock.EXPECT().Now().Return(created),
		clock.EXPECT().Now().Return(updated),
	)

	repo := encounters.NewInMemoryRepositoryWithClock(clock)

	enc := combat.NewEncounter("enc-1", "Bridge Trolls", false, time.Time{})
	enc.State.Combatants = []combat.Combatant{combat.NewCombatant(1, "Troll", 13, 1, false)}

	t.Run("Create stamps and stores a copy", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, enc))
		assert.Equal(t, created, enc.CreatedAt)

		enc.State.Combatants[0].Name = "Mutated"
		got, err := repo.Get(ctx, "enc-1")
		require.NoError(t, err)
		assert.Equal(t, "Troll", got.State.Combatants[0].Name)
	})

	t.Run("Create duplicate fails", func(t *testing.T) {
		err := repo.Create(ctx, combat.NewEncounter("enc-1", "Again", false, time.Time{}))
		assert.True(t, dnderr.IsAlreadyExists(err))
	})

	t.Run("Update replaces the record", func(t *testing.T) {
		got, err := repo.Get(ctx, "enc-1")
		require.NoError(t, err)
		got.State.Round = 3

		require.NoError(t, repo.Update(ctx, got))

		again, err := repo.Get(ctx, "enc-1")
		require.NoError(t, err)
		assert.Equal(t, 3, again.State.Round)
		assert.Equal(t, updated, again.UpdatedAt)
		assert.Equal(t, created, again.CreatedAt)
	})

	t.Run("Update missing fails", func(t *testing.T) {
		err := repo.Update(ctx, combat.NewEncounter("nope", "Nope", false, time.Time{}))
		assert.True(t, dnderr.IsNotFound(err))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "enc-1"))
		_, err := repo.Get(ctx, "enc-1")
		assert.True(t, dnderr.IsNotFound(err))
		assert.True(t, dnderr.IsNotFound(repo.Delete(ctx, "enc-1")))
	})
}

func TestInMemoryRepository_ListIsOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockTimeProvider(ctrl)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	gomock.InOrder(
		clock.EXPECT().Now().Return(base.Add(2*time.Hour)),
		clock.EXPECT().Now().Return(base),
		clock.EXPECT().Now().Return(base.Add(time.Hour)),
	)

	repo := encounters.NewInMemoryRepositoryWithClock(clock)
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, repo.Create(ctx, combat.NewEncounter(id, id, false, time.Time{})))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, "c", list[2].ID)
}

func TestInMemoryRepository_NilEncounter(t *testing.T) {
	repo := encounters.NewInMemoryRepository()
	assert.True(t, dnderr.IsInvalidArgument(repo.Create(context.Background(), nil)))
	assert.True(t, dnderr.IsInvalidArgument(repo.Update(context.Background(), nil)))
}
