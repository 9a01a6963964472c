package dice

import (
	"fmt"
	"strconv"
	"strings"

	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
)

// Notation is a parsed dice expression such as "2d6+3" or "d20-1"
type Notation struct {
	Count int
	Sides int
	Bonus int
}

// ParseNotation parses NdS, NdS+B and NdS-B. A missing count means one die.
func ParseNotation(s string) (Notation, error) {
	expr := strings.ToLower(strings.ReplaceAll(s, " ", ""))
	invalid := func() (Notation, error) {
		return Notation{}, dnderr.InvalidArgumentf("invalid dice string %q", s)
	}

	var n Notation
	if i := strings.IndexAny(expr, "+-"); i >= 0 {
		bonus, err := strconv.Atoi(expr[i:])
		if err != nil {
			return invalid()
		}
		n.Bonus = bonus
		expr = expr[:i]
	}

	countPart, sidesPart, ok := strings.Cut(expr, "d")
	if !ok {
		return invalid()
	}

	n.Count = 1
	if countPart != "" {
		count, err := strconv.Atoi(countPart)
		if err != nil || count < 1 {
			return invalid()
		}
		n.Count = count
	}

	sides, err := strconv.Atoi(sidesPart)
	if err != nil || sides < 1 {
		return invalid()
	}
	n.Sides = sides

	return n, nil
}

// String formats the notation back into its canonical form
func (n Notation) String() string {
	switch {
	case n.Bonus > 0:
		return fmt.Sprintf("%dd%d+%d", n.Count, n.Sides, n.Bonus)
	case n.Bonus < 0:
		return fmt.Sprintf("%dd%d%d", n.Count, n.Sides, n.Bonus)
	default:
		return fmt.Sprintf("%dd%d", n.Count, n.Sides)
	}
}

// RollNotation parses s and rolls it with r
func RollNotation(r Roller, s string) (*RollResult, error) {
	n, err := ParseNotation(s)
	if err != nil {
		return nil, err
	}
	return r.Roll(n.Count, n.Sides, n.Bonus)
}

// String renders the result for the command line, e.g. "14 [11] +3"
func (r *RollResult) String() string {
	compact := strings.ReplaceAll(fmt.Sprintf("%v", r.Rolls), " ", ",")
	switch {
	case r.Bonus > 0:
		return fmt.Sprintf("%d %s +%d", r.Total, compact, r.Bonus)
	case r.Bonus < 0:
		return fmt.Sprintf("%d %s %d", r.Total, compact, r.Bonus)
	default:
		return fmt.Sprintf("%d %s", r.Total, compact)
	}
}
