package testutils

import (
	"time"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	"github.com/KirkDiggler/initiative-tracker/internal/roster"
)

// FixedTime is the clock value fixtures use for timestamps
var FixedTime = time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC)

// CreateTestCombatant creates a conscious combatant with typical stats
func CreateTestCombatant(id int, name string, initiative, dexMod int, isPC bool) combat.Combatant {
	c := combat.NewCombatant(id, name, initiative, dexMod, isPC)
	c.HitPoints = 12
	c.ArmorClass = 13
	if isPC {
		c.HitPoints = 24
		c.ArmorClass = 16
	}
	return c
}

// CreateTestParty returns a fighter, rogue and two goblins in no particular order
func CreateTestParty() []combat.Combatant {
	return []combat.Combatant{
		CreateTestCombatant(3, "Goblin 1", 12, 2, false),
		CreateTestCombatant(1, "Fighter", 15, 1, true),
		CreateTestCombatant(4, "Goblin 2", 8, 2, false),
		CreateTestCombatant(2, "Rogue", 19, 4, true),
	}
}

// CreateTestEncounter creates an encounter holding the test party at round 1
func CreateTestEncounter(id, name string) *combat.Encounter {
	enc := combat.NewEncounter(id, name, true, FixedTime)
	tracker := combat.NewTracker(&combat.TrackerConfig{SkipUnconscious: true})
	tracker.SetCombatants(CreateTestParty())
	enc.Capture(tracker, FixedTime)
	return enc
}

// CreateTestLibrary returns a roster library with a few characters and groups
func CreateTestLibrary() *roster.Library {
	return roster.NewLibrary(
		[]roster.Character{
			{Name: "Fighter", DexMod: 1, IsPC: true, Tags: []string{"party"}, DefaultHP: 24, DefaultAC: 18},
			{Name: "Rogue", DexMod: 4, IsPC: true, Tags: []string{"party", "stealthy"}, DefaultHP: 18, DefaultAC: 15},
			{Name: "Goblin", DexMod: 2, Tags: []string{"goblinoid", "minion"}, DefaultHP: 7, DefaultAC: 15, DefaultNotes: "Nimble Escape"},
			{Name: "Bandit", DexMod: 1, Tags: []string{"humanoid", "minion"}, DefaultHP: 11, DefaultAC: 12},
		},
		[]roster.Group{
			{Name: "Ambush", Entries: []roster.GroupEntry{
				{Character: "Goblin", Count: 3},
				{Character: "Bandit", Count: 1},
			}},
		},
	)
}
