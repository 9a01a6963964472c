package combat

import (
	"fmt"
	"time"
)

// maxLogEntries bounds the combat log kept with an encounter
const maxLogEntries = 20

// Encounter is a named, persisted initiative order
type Encounter struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	SkipUnconscious bool      `json:"skip_unconscious"` // Policy used when moving the cursor
	State           Snapshot  `json:"-"`                // Persisted through encounterdoc
	CombatLog       []string  `json:"combat_log"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewEncounter creates an encounter with no combatants at round 1
func NewEncounter(id, name string, skipUnconscious bool, now time.Time) *Encounter {
	return &Encounter{
		ID:              id,
		Name:            name,
		SkipUnconscious: skipUnconscious,
		State:           Snapshot{Round: 1},
		CombatLog:       []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Tracker builds a tracker holding the encounter's current state
func (e *Encounter) Tracker() (*Tracker, error) {
	t := NewTracker(&TrackerConfig{SkipUnconscious: e.SkipUnconscious})
	if err := t.Restore(e.State); err != nil {
		return nil, err
	}
	return t, nil
}

// Capture stores the tracker's state on the encounter
func (e *Encounter) Capture(t *Tracker, now time.Time) {
	e.State = t.Snapshot()
	e.UpdatedAt = now
}

// AddCombatLogEntry appends a round-prefixed entry, keeping only the most recent ones
func (e *Encounter) AddCombatLogEntry(entry string) {
	e.CombatLog = append(e.CombatLog, fmt.Sprintf("Round %d: %s", e.State.Round, entry))
	if len(e.CombatLog) > maxLogEntries {
		e.CombatLog = e.CombatLog[len(e.CombatLog)-maxLogEntries:]
	}
}

// Clone returns a deep copy of the encounter
func (e *Encounter) Clone() *Encounter {
	c := *e
	c.CombatLog = append([]string(nil), e.CombatLog...)
	c.State.Combatants = make([]Combatant, len(e.State.Combatants))
	for i := range e.State.Combatants {
		c.State.Combatants[i] = e.State.Combatants[i].Clone()
	}
	return &c
}
