package dnd5e

import (
	"fmt"
	"strconv"

	"github.com/KirkDiggler/initiative-tracker/internal/roster"
)

// SRDTag marks roster characters imported from the SRD
const SRDTag = "srd"

// ToCharacter converts the monster into a reusable roster entry. The SRD
// stat block carries no initiative bonus, so DexMod starts at 0.
func (m *Monster) ToCharacter() roster.Character {
	tags := []string{SRDTag}
	if m.Type != "" {
		tags = append(tags, m.Type)
	}

	return roster.Character{
		Name:         m.Name,
		DexMod:       0,
		IsPC:         false,
		Tags:         tags,
		DefaultHP:    m.HitPoints,
		DefaultAC:    m.ArmorClass,
		DefaultNotes: m.notes(),
	}
}

func (m *Monster) notes() string {
	cr := strconv.FormatFloat(float64(m.ChallengeRating), 'f', -1, 32)
	switch m.ChallengeRating {
	case 0.125:
		cr = "1/8"
	case 0.25:
		cr = "1/4"
	case 0.5:
		cr = "1/2"
	}

	if m.HitDice == "" {
		return fmt.Sprintf("CR %s", cr)
	}
	return fmt.Sprintf("CR %s, HD %s", cr, m.HitDice)
}
