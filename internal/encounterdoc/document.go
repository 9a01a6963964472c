// Package encounterdoc converts tracker snapshots to and from the versioned
// encounter document stored on disk and in Redis.
package encounterdoc

import (
	"encoding/json"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
)

// SchemaVersion is the only document version this package reads or writes
const SchemaVersion = 2

// Document is the on-disk encounter format
type Document struct {
	Schema     int               `json:"schema"`
	Round      int               `json:"round"`
	TurnIndex  int               `json:"turnIndex"`
	Combatants []CombatantRecord `json:"combatants"`
}

// CombatantRecord is one combatant in a Document
type CombatantRecord struct {
	ID         int               `json:"id"`
	Name       string            `json:"name"`
	Initiative int               `json:"initiative"`
	DexMod     int               `json:"dexMod"`
	IsPC       bool              `json:"isPC"`
	Conscious  *bool             `json:"conscious,omitempty"` // Missing means conscious
	HP         int               `json:"hp"`
	AC         int               `json:"ac"`
	DeathSaves DeathSavesRecord  `json:"deathSaves"`
	Conditions []ConditionRecord `json:"conditions"`
	Notes      string            `json:"notes"`
}

type DeathSavesRecord struct {
	Successes int  `json:"successes"`
	Failures  int  `json:"failures"`
	Dead      bool `json:"dead"`
	Stable    bool `json:"stable"`
}

type ConditionRecord struct {
	Name            string `json:"name"`
	RemainingRounds int    `json:"remainingRounds"`
}

// FromSnapshot builds a current-schema document from a snapshot
func FromSnapshot(s combat.Snapshot) Document {
	doc := Document{
		Schema:     SchemaVersion,
		Round:      s.Round,
		TurnIndex:  s.CursorIndex,
		Combatants: make([]CombatantRecord, 0, len(s.Combatants)),
	}

	for _, c := range s.Combatants {
		conscious := c.Conscious
		record := CombatantRecord{
			ID:         c.ID,
			Name:       c.Name,
			Initiative: c.Initiative,
			DexMod:     c.DexterityModifier,
			IsPC:       c.IsPlayerCharacter,
			Conscious:  &conscious,
			HP:         c.HitPoints,
			AC:         c.ArmorClass,
			DeathSaves: DeathSavesRecord{
				Successes: c.DeathSaves.Successes,
				Failures:  c.DeathSaves.Failures,
				Dead:      c.DeathSaves.Dead,
				Stable:    c.DeathSaves.Stable,
			},
			Conditions: make([]ConditionRecord, 0, len(c.Conditions)),
			Notes:      c.Notes,
		}
		for _, cond := range c.Conditions {
			record.Conditions = append(record.Conditions, ConditionRecord{
				Name:            cond.Name,
				RemainingRounds: cond.RemainingRounds,
			})
		}
		doc.Combatants = append(doc.Combatants, record)
	}

	return doc
}

// Snapshot validates the document and converts it to a snapshot that can be
// passed to Tracker.Restore
func (d Document) Snapshot() (combat.Snapshot, error) {
	if err := d.Validate(); err != nil {
		return combat.Snapshot{}, err
	}

	s := combat.Snapshot{
		Round:       d.Round,
		CursorIndex: d.TurnIndex,
		Combatants:  make([]combat.Combatant, 0, len(d.Combatants)),
	}
	if len(d.Combatants) == 0 {
		s.CursorIndex = 0
	}

	for _, r := range d.Combatants {
		c := combat.Combatant{
			ID:                r.ID,
			Name:              r.Name,
			Initiative:        r.Initiative,
			DexterityModifier: r.DexMod,
			IsPlayerCharacter: r.IsPC,
			Conscious:         r.Conscious == nil || *r.Conscious,
			HitPoints:         r.HP,
			ArmorClass:        r.AC,
			DeathSaves: combat.DeathSaves{
				Successes: r.DeathSaves.Successes,
				Failures:  r.DeathSaves.Failures,
				Dead:      r.DeathSaves.Dead,
				Stable:    r.DeathSaves.Stable,
			},
			Notes: r.Notes,
		}
		for _, cond := range r.Conditions {
			c.Conditions = append(c.Conditions, combat.Condition{
				Name:            cond.Name,
				RemainingRounds: cond.RemainingRounds,
			})
		}
		s.Combatants = append(s.Combatants, c)
	}

	return s, nil
}

// Validate checks everything Tracker.Restore would reject plus the fields
// only the document can get wrong
func (d Document) Validate() error {
	if d.Schema != SchemaVersion {
		return dnderr.Validationf("unsupported encounter schema %d", d.Schema).
			WithMeta("schema", d.Schema)
	}

	if len(d.Combatants) > 0 && (d.TurnIndex < 0 || d.TurnIndex >= len(d.Combatants)) {
		return dnderr.Validationf("turn index %d out of range for %d combatants", d.TurnIndex, len(d.Combatants))
	}

	seen := make(map[int]struct{}, len(d.Combatants))
	for i, r := range d.Combatants {
		if _, ok := seen[r.ID]; ok {
			return dnderr.Validationf("duplicate combatant id %d", r.ID).WithMeta("index", i)
		}
		seen[r.ID] = struct{}{}

		saves := r.DeathSaves
		if saves.Successes < 0 || saves.Successes > combat.MaxDeathSaves ||
			saves.Failures < 0 || saves.Failures > combat.MaxDeathSaves {
			return dnderr.Validationf("combatant %d has death save counts outside 0..%d", r.ID, combat.MaxDeathSaves)
		}
		if saves.Dead && saves.Stable {
			return dnderr.Validationf("combatant %d is both dead and stable", r.ID)
		}
	}

	return nil
}

// Encode writes a snapshot as an indented current-schema document
func Encode(s combat.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(FromSnapshot(s), "", "  ")
	if err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to encode encounter")
	}
	return data, nil
}

// Decode parses and validates a document
func Decode(data []byte) (combat.Snapshot, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return combat.Snapshot{}, dnderr.WrapWithCode(err, dnderr.CodeValidation, "malformed encounter document")
	}
	return doc.Snapshot()
}
