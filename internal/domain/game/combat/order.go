package combat

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Compare orders combatants for initiative. It returns a negative number when
// a acts before b, a positive number when b acts first and zero when they tie
// on every key.
//
// Keys, in order: higher initiative, higher dexterity modifier, player
// characters before everyone else, then name ascending ignoring case.
func Compare(a, b Combatant) int {
	fold := cases.Fold()
	return compareKeyed(&a, &b, fold.String(a.Name), fold.String(b.Name))
}

func compareKeyed(a, b *Combatant, aName, bName string) int {
	if a.Initiative != b.Initiative {
		return cmp.Compare(b.Initiative, a.Initiative)
	}
	if a.DexterityModifier != b.DexterityModifier {
		return cmp.Compare(b.DexterityModifier, a.DexterityModifier)
	}
	if a.IsPlayerCharacter != b.IsPlayerCharacter {
		if a.IsPlayerCharacter {
			return -1
		}
		return 1
	}
	return strings.Compare(aName, bName)
}

type sortKey struct {
	combatant Combatant
	name      string
}

// sortCombatants sorts in place. Combatants that tie on every key keep their
// relative order.
func sortCombatants(list []Combatant) {
	fold := cases.Fold()
	keyed := make([]sortKey, len(list))
	for i := range list {
		keyed[i] = sortKey{combatant: list[i], name: fold.String(list[i].Name)}
	}

	slices.SortStableFunc(keyed, func(a, b sortKey) int {
		return compareKeyed(&a.combatant, &b.combatant, a.name, b.name)
	})

	for i := range keyed {
		list[i] = keyed[i].combatant
	}
}
