package encounterdoc_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	"github.com/KirkDiggler/initiative-tracker/internal/encounterdoc"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() combat.Snapshot {
	fighter := combat.NewCombatant(1, "Fighter", 18, 2, true)
	fighter.HitPoints = 31
	fighter.ArmorClass = 18
	fighter.Notes = "Action surge used"
	fighter.Conditions = []combat.Condition{
		{Name: "Bless", RemainingRounds: 2},
		{Name: "Shield of Faith", RemainingRounds: 9},
	}

	goblin := combat.NewCombatant(2, "Goblin 1", 12, 2, false)
	goblin.HitPoints = 0
	goblin.ArmorClass = 15
	goblin.KnockOut()
	goblin.DeathSaves = combat.DeathSaves{Successes: 1, Failures: 2}

	return combat.Snapshot{
		Round:       3,
		CursorIndex: 1,
		Combatants:  []combat.Combatant{fighter, goblin},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	snap := sampleSnapshot()

	data, err := encounterdoc.Encode(snap)
	require.NoError(t, err)

	decoded, err := encounterdoc.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, snap, decoded)

	// Restoring the decoded snapshot yields the same tracker state
	tracker := combat.NewTracker(nil)
	require.NoError(t, tracker.Restore(decoded))
	current, ok := tracker.Current()
	require.True(t, ok)
	assert.Equal(t, "Goblin 1", current.Name)
	assert.Equal(t, 3, tracker.Round())
}

func TestEncodeDecode_RoundTripAfterConditionsExpire(t *testing.T) {
	caster := combat.NewCombatant(1, "Cleric", 16, 0, true)
	caster.ApplyCondition("Bless", 1)
	ally := combat.NewCombatant(2, "Fighter", 12, 1, true)

	tracker := combat.NewTracker(nil)
	tracker.SetCombatants([]combat.Combatant{caster, ally})
	report, moved := tracker.Advance(false)
	require.True(t, moved)
	require.Len(t, report.Expired, 1)

	snap := tracker.Snapshot()
	data, err := encounterdoc.Encode(snap)
	require.NoError(t, err)

	decoded, err := encounterdoc.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, snap, decoded)
}

func TestEncode_UsesDocumentFieldNames(t *testing.T) {
	data, err := encounterdoc.Encode(sampleSnapshot())
	require.NoError(t, err)

	for _, key := range []string{`"schema": 2`, `"turnIndex": 1`, `"dexMod"`, `"isPC"`, `"remainingRounds"`, `"deathSaves"`} {
		assert.Contains(t, string(data), key)
	}
}

func TestDecode_MissingConsciousDefaultsToTrue(t *testing.T) {
	data := []byte(`{
		"schema": 2,
		"round": 1,
		"turnIndex": 0,
		"combatants": [
			{"id": 4, "name": "Cleric", "initiative": 9, "dexMod": 0, "isPC": true, "hp": 22, "ac": 16}
		]
	}`)

	snap, err := encounterdoc.Decode(data)
	require.NoError(t, err)
	require.Len(t, snap.Combatants, 1)
	assert.True(t, snap.Combatants[0].Conscious)
	assert.Empty(t, snap.Combatants[0].Conditions)
	assert.Equal(t, combat.DeathSaves{}, snap.Combatants[0].DeathSaves)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "malformed json",
			data: `{"schema": 2, "round": `,
		},
		{
			name: "missing schema",
			data: `{"round": 1, "turnIndex": 0, "combatants": []}`,
		},
		{
			name: "old schema",
			data: `{"schema": 1, "round": 1, "turnIndex": 0, "combatants": []}`,
		},
		{
			name: "turn index out of range",
			data: `{"schema": 2, "round": 1, "turnIndex": 1, "combatants": [{"id": 1, "name": "A"}]}`,
		},
		{
			name: "duplicate ids",
			data: `{"schema": 2, "round": 1, "turnIndex": 0, "combatants": [{"id": 1, "name": "A"}, {"id": 1, "name": "B"}]}`,
		},
		{
			name: "death save count too high",
			data: `{"schema": 2, "round": 1, "turnIndex": 0, "combatants": [{"id": 1, "name": "A", "deathSaves": {"successes": 4}}]}`,
		},
		{
			name: "dead and stable",
			data: `{"schema": 2, "round": 1, "turnIndex": 0, "combatants": [{"id": 1, "name": "A", "deathSaves": {"failures": 3, "dead": true, "stable": true}}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := encounterdoc.Decode([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, dnderr.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestDecode_EmptyEncounter(t *testing.T) {
	snap, err := encounterdoc.Decode([]byte(`{"schema": 2, "round": 1, "turnIndex": 0, "combatants": []}`))
	require.NoError(t, err)
	assert.Empty(t, snap.Combatants)
	assert.Equal(t, 0, snap.CursorIndex)
}

func TestSaveFileLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "encounters", "crypt.json")
	snap := sampleSnapshot()

	require.NoError(t, encounterdoc.SaveFile(path, snap))

	loaded, err := encounterdoc.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)

	// Overwriting leaves no temporary files behind
	snap.Round = 4
	require.NoError(t, encounterdoc.SaveFile(path, snap))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	loaded, err = encounterdoc.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Round)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := encounterdoc.LoadFile(filepath.Join(dir, "missing.json"))
	assert.True(t, dnderr.IsNotFound(err))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"schema": 7}`), 0o600))
	_, err = encounterdoc.LoadFile(bad)
	assert.True(t, dnderr.IsValidation(err))
}
