package dice

import (
	"strings"

	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
)

// Mode selects how a d20 is rolled
type Mode string

const (
	ModeNormal       Mode = "normal"
	ModeAdvantage    Mode = "advantage"
	ModeDisadvantage Mode = "disadvantage"
)

// ParseMode accepts the long names and the adv/dis shorthands. An empty
// string is a normal roll.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return ModeNormal, nil
	case "adv", "advantage":
		return ModeAdvantage, nil
	case "dis", "disadvantage":
		return ModeDisadvantage, nil
	default:
		return "", dnderr.InvalidArgumentf("unknown roll mode %q", s)
	}
}

// RollInitiative rolls a d20 in the given mode and adds modifier
func RollInitiative(r Roller, mode Mode, modifier int) (*RollResult, error) {
	switch mode {
	case ModeNormal, "":
		return r.Roll(1, 20, modifier)
	case ModeAdvantage:
		return r.RollWithAdvantage(20, modifier)
	case ModeDisadvantage:
		return r.RollWithDisadvantage(20, modifier)
	default:
		return nil, dnderr.InvalidArgumentf("unknown roll mode %q", mode)
	}
}
