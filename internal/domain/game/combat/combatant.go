package combat

// Combatant represents a participant in an encounter
type Combatant struct {
	ID                int         `json:"id"` // Assigned by the caller, unique within a tracker
	Name              string      `json:"name"`
	Initiative        int         `json:"initiative"`
	DexterityModifier int         `json:"dexterity_modifier"`
	IsPlayerCharacter bool        `json:"is_player_character"`
	Conscious         bool        `json:"conscious"`
	HitPoints         int         `json:"hit_points"`
	ArmorClass        int         `json:"armor_class"`
	DeathSaves        DeathSaves  `json:"death_saves"`
	Conditions        []Condition `json:"conditions"`
	Notes             string      `json:"notes"`
}

// NewCombatant creates a conscious combatant with no conditions
func NewCombatant(id int, name string, initiative, dexModifier int, isPC bool) Combatant {
	return Combatant{
		ID:                id,
		Name:              name,
		Initiative:        initiative,
		DexterityModifier: dexModifier,
		IsPlayerCharacter: isPC,
		Conscious:         true,
	}
}

// Clone returns a deep copy so callers never share the condition slice with the tracker
func (c Combatant) Clone() Combatant {
	if c.Conditions != nil {
		conds := make([]Condition, len(c.Conditions))
		copy(conds, c.Conditions)
		c.Conditions = conds
	}
	return c
}

// KnockOut marks the combatant unconscious and starts a fresh set of death saves
func (c *Combatant) KnockOut() {
	c.Conscious = false
	c.DeathSaves.Reset()
}

// Revive marks the combatant conscious again and clears its death saves
func (c *Combatant) Revive() {
	c.Conscious = true
	c.DeathSaves.Reset()
}
