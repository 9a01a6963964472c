package combat

import (
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
)

// Snapshot is a detached copy of a tracker's state. CursorIndex is a position
// in Combatants and is 0 when there are no combatants.
type Snapshot struct {
	Round       int
	CursorIndex int
	Combatants  []Combatant
}

// Snapshot captures the tracker's current state
func (t *Tracker) Snapshot() Snapshot {
	idx, _ := t.CurrentIndex()
	return Snapshot{
		Round:       t.round,
		CursorIndex: idx,
		Combatants:  t.Combatants(),
	}
}

// Restore replaces the tracker's state with a snapshot. The snapshot is
// validated before anything is changed, so a rejected snapshot leaves the
// tracker as it was. The cursor is restored exactly, even onto an unconscious
// combatant.
func (t *Tracker) Restore(s Snapshot) error {
	if id, dup := firstDuplicateID(s.Combatants); dup {
		return dnderr.Validationf("duplicate combatant id %d", id)
	}
	if len(s.Combatants) > 0 && (s.CursorIndex < 0 || s.CursorIndex >= len(s.Combatants)) {
		return dnderr.Validationf("cursor index %d out of range for %d combatants", s.CursorIndex, len(s.Combatants))
	}

	combatants := make([]Combatant, len(s.Combatants))
	for i := range s.Combatants {
		combatants[i] = s.Combatants[i].Clone()
	}

	t.combatants = combatants
	t.hasActive = false
	if len(combatants) > 0 {
		t.activeID = combatants[s.CursorIndex].ID
		t.hasActive = true
	}
	sortCombatants(t.combatants)
	t.round = max(1, s.Round)

	return nil
}
