package combat_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncounter_TrackerAndCapture(t *testing.T) {
	created := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	enc := combat.NewEncounter("enc-1", "Goblin Ambush", true, created)
	assert.Equal(t, 1, enc.State.Round)

	tracker, err := enc.Tracker()
	require.NoError(t, err)
	assert.True(t, tracker.SkipUnconscious())
	assert.Zero(t, tracker.Len())

	tracker.SetCombatants(threeCombatants())
	tracker.Advance(true)

	later := created.Add(time.Minute)
	enc.Capture(tracker, later)
	assert.Equal(t, later, enc.UpdatedAt)
	assert.Equal(t, 1, enc.State.CursorIndex)
	assert.Len(t, enc.State.Combatants, 3)

	again, err := enc.Tracker()
	require.NoError(t, err)
	assert.Equal(t, "Brute", currentName(t, again))
}

func TestEncounter_CombatLogIsBounded(t *testing.T) {
	enc := combat.NewEncounter("enc-1", "Long Fight", false, time.Now())
	enc.State.Round = 4

	for i := 0; i < 25; i++ {
		enc.AddCombatLogEntry(fmt.Sprintf("entry %d", i))
	}

	require.Len(t, enc.CombatLog, 20)
	assert.Equal(t, "Round 4: entry 5", enc.CombatLog[0])
	assert.Equal(t, "Round 4: entry 24", enc.CombatLog[19])
}

func TestEncounter_CloneIsDeep(t *testing.T) {
	enc := combat.NewEncounter("enc-1", "Crypt", false, time.Now())
	list := threeCombatants()
	list[0].Conditions = []combat.Condition{{Name: "Bless", RemainingRounds: 2}}
	enc.State.Combatants = list
	enc.AddCombatLogEntry("started")

	clone := enc.Clone()
	clone.State.Combatants[0].Conditions[0].RemainingRounds = 9
	clone.State.Combatants[1].Name = "Changed"
	clone.CombatLog[0] = "changed"

	assert.Equal(t, 2, enc.State.Combatants[0].Conditions[0].RemainingRounds)
	assert.Equal(t, "Brute", enc.State.Combatants[1].Name)
	assert.Equal(t, "Round 1: started", enc.CombatLog[0])
}
