package combat_test

import (
	"testing"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	tracker := combat.NewTracker(nil)
	tracker.SetCombatants(threeCombatants())
	tracker.Advance(false)
	tracker.Advance(false)
	tracker.Advance(false)
	tracker.Advance(false)

	snap := tracker.Snapshot()
	assert.Equal(t, 2, snap.Round)
	assert.Equal(t, 1, snap.CursorIndex)

	restored := combat.NewTracker(nil)
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, 2, restored.Round())
	assert.Equal(t, "Brute", currentName(t, restored))
	assert.Equal(t, tracker.Combatants(), restored.Combatants())
}

func TestSnapshot_EmptyTracker(t *testing.T) {
	snap := combat.NewTracker(nil).Snapshot()
	assert.Equal(t, combat.Snapshot{Round: 1, CursorIndex: 0, Combatants: []combat.Combatant{}}, snap)

	restored := combat.NewTracker(nil)
	require.NoError(t, restored.Restore(snap))
	_, ok := restored.Current()
	assert.False(t, ok)
}

func TestRestore_KeepsCursorOnUnconsciousCombatant(t *testing.T) {
	list := threeCombatants()
	list[1] = unconscious(list[1])

	tracker := combat.NewTracker(&combat.TrackerConfig{SkipUnconscious: true})
	require.NoError(t, tracker.Restore(combat.Snapshot{Round: 3, CursorIndex: 1, Combatants: list}))

	assert.Equal(t, "Brute", currentName(t, tracker))
	assert.Equal(t, 3, tracker.Round())
}

func TestRestore_ResolvesCursorBeforeSorting(t *testing.T) {
	// Unsorted input: the cursor refers to the input position
	list := []combat.Combatant{
		combat.NewCombatant(3, "Cultist", 10, 1, false),
		combat.NewCombatant(1, "Aria", 20, 2, true),
		combat.NewCombatant(2, "Brute", 15, 0, false),
	}

	tracker := combat.NewTracker(nil)
	require.NoError(t, tracker.Restore(combat.Snapshot{Round: 1, CursorIndex: 0, Combatants: list}))

	assert.Equal(t, "Cultist", currentName(t, tracker))
	idx, _ := tracker.CurrentIndex()
	assert.Equal(t, 2, idx)
}

func TestRestore_RejectsInvalidSnapshots(t *testing.T) {
	tests := []struct {
		name string
		snap combat.Snapshot
	}{
		{
			name: "duplicate ids",
			snap: combat.Snapshot{Round: 1, Combatants: []combat.Combatant{
				combat.NewCombatant(1, "A", 10, 0, false),
				combat.NewCombatant(1, "B", 9, 0, false),
			}},
		},
		{
			name: "cursor past the end",
			snap: combat.Snapshot{Round: 1, CursorIndex: 3, Combatants: threeCombatants()},
		},
		{
			name: "negative cursor",
			snap: combat.Snapshot{Round: 1, CursorIndex: -1, Combatants: threeCombatants()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := combat.NewTracker(nil)
			tracker.SetCombatants([]combat.Combatant{combat.NewCombatant(9, "Keeper", 5, 0, true)})

			err := tracker.Restore(tt.snap)
			require.Error(t, err)
			assert.True(t, dnderr.IsValidation(err))

			assert.Equal(t, []string{"Keeper"}, names(tracker.Combatants()))
			assert.Equal(t, "Keeper", currentName(t, tracker))
		})
	}
}

func TestRestore_ClampsRound(t *testing.T) {
	tracker := combat.NewTracker(nil)
	require.NoError(t, tracker.Restore(combat.Snapshot{Round: 0, Combatants: threeCombatants()}))
	assert.Equal(t, 1, tracker.Round())
}
