package dice

import (
	"math/rand"
	"sync"
	"time"

	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
)

// randomRoller implements Roller on top of a seedable source
type randomRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomRoller creates a roller seeded from the clock
func NewRandomRoller() Roller {
	return NewSeededRoller(time.Now().UnixNano())
}

// NewSeededRoller creates a roller that produces the same sequence for the same seed
func NewSeededRoller(seed int64) Roller {
	return &randomRoller{
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (r *randomRoller) roll(sides int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(sides) + 1
}

// Roll implements Roller.Roll
func (r *randomRoller) Roll(count, sides, bonus int) (*RollResult, error) {
	if err := validate(count, sides); err != nil {
		return nil, err
	}

	rolls := make([]int, count)
	for i := range rolls {
		rolls[i] = r.roll(sides)
	}

	return SumResult(rolls, sides, bonus), nil
}

// RollWithAdvantage implements Roller.RollWithAdvantage
func (r *randomRoller) RollWithAdvantage(sides, bonus int) (*RollResult, error) {
	if err := validate(1, sides); err != nil {
		return nil, err
	}

	first, second := r.roll(sides), r.roll(sides)
	return PairResult(first, second, sides, bonus, max(first, second)), nil
}

// RollWithDisadvantage implements Roller.RollWithDisadvantage
func (r *randomRoller) RollWithDisadvantage(sides, bonus int) (*RollResult, error) {
	if err := validate(1, sides); err != nil {
		return nil, err
	}

	first, second := r.roll(sides), r.roll(sides)
	return PairResult(first, second, sides, bonus, min(first, second)), nil
}

func validate(count, sides int) error {
	if count < 1 {
		return dnderr.InvalidArgumentf("invalid dice count %d", count)
	}
	if sides < 1 {
		return dnderr.InvalidArgumentf("invalid dice size %d", sides)
	}
	return nil
}
