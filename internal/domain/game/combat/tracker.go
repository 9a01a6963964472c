package combat

import (
	"fmt"
	"slices"

	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
)

// TrackerConfig holds the policies a tracker applies on its own
type TrackerConfig struct {
	// SkipUnconscious makes cursor initialization pass over unconscious
	// combatants. Advance and Rewind take the policy per call.
	SkipUnconscious bool
}

// Tracker owns the initiative order of an encounter: the sorted combatants,
// whose turn it is and the current round.
//
// The active turn is tracked by combatant id and re-resolved to a position
// after every reorder. Tracker does no locking; callers serialize access.
type Tracker struct {
	combatants      []Combatant
	activeID        int
	hasActive       bool
	round           int
	skipUnconscious bool
}

// TurnReport describes the effect of a single Advance or Rewind
type TurnReport struct {
	PreviousID    int
	CurrentID     int
	PreviousRound int
	Round         int
	// Expired lists the conditions the conceding combatant lost. Always
	// empty for Rewind.
	Expired []Condition
}

// RoundChanged reports whether the move crossed a round boundary
func (r TurnReport) RoundChanged() bool {
	return r.Round != r.PreviousRound
}

// NewTracker creates an empty tracker at round 1
func NewTracker(cfg *TrackerConfig) *Tracker {
	t := &Tracker{round: 1}
	if cfg != nil {
		t.skipUnconscious = cfg.SkipUnconscious
	}
	return t
}

// Len returns the number of combatants
func (t *Tracker) Len() int {
	return len(t.combatants)
}

// Round returns the current round, always at least 1
func (t *Tracker) Round() int {
	return t.round
}

// SetRound sets the round counter. Values below 1 become 1.
func (t *Tracker) SetRound(round int) {
	t.round = max(1, round)
}

// SkipUnconscious returns the initialization policy
func (t *Tracker) SkipUnconscious() bool {
	return t.skipUnconscious
}

// Combatants returns copies of the combatants in initiative order
func (t *Tracker) Combatants() []Combatant {
	out := make([]Combatant, len(t.combatants))
	for i := range t.combatants {
		out[i] = t.combatants[i].Clone()
	}
	return out
}

// Current returns a copy of the combatant whose turn it is
func (t *Tracker) Current() (Combatant, bool) {
	idx, ok := t.CurrentIndex()
	if !ok {
		return Combatant{}, false
	}
	return t.combatants[idx].Clone(), true
}

// CurrentIndex returns the position of the active combatant in initiative order
func (t *Tracker) CurrentIndex() (int, bool) {
	idx := t.activeIndex()
	if idx < 0 {
		return 0, false
	}
	return idx, true
}

// CombatantByID returns a copy of the combatant with the given id
func (t *Tracker) CombatantByID(id int) (Combatant, error) {
	idx := t.indexOf(id)
	if idx < 0 {
		return Combatant{}, dnderr.CombatantNotFound(id)
	}
	return t.combatants[idx].Clone(), nil
}

// SetCombatants replaces the roster, sorts it, resets the round to 1 and
// puts the cursor on the first eligible combatant.
// Duplicate ids in list are a programming error and panic.
func (t *Tracker) SetCombatants(list []Combatant) {
	mustBeUnique(list)

	t.combatants = make([]Combatant, len(list))
	for i := range list {
		t.combatants[i] = list[i].Clone()
	}
	sortCombatants(t.combatants)

	t.hasActive = false
	t.round = 1
	t.ensureCursor()
}

// AddCombatant inserts a combatant in initiative order. The active combatant
// keeps the turn. Adding an id that is already present panics; check with
// CombatantByID first.
func (t *Tracker) AddCombatant(c Combatant) {
	if t.indexOf(c.ID) >= 0 {
		panic(fmt.Sprintf("combat: duplicate combatant id %d", c.ID))
	}

	t.combatants = append(t.combatants, c.Clone())
	sortCombatants(t.combatants)
	t.ensureCursor()
}

// RemoveCombatant removes a combatant by id.
//
// Removing the active combatant hands the turn to whoever now occupies its
// position, or the last combatant if it was at the end. Emptying the roster
// unsets the cursor and resets the round to 1.
func (t *Tracker) RemoveCombatant(id int) error {
	idx := t.indexOf(id)
	if idx < 0 {
		return dnderr.CombatantNotFound(id)
	}

	wasActive := t.hasActive && t.activeID == id
	t.combatants = slices.Delete(t.combatants, idx, idx+1)

	if len(t.combatants) == 0 {
		t.hasActive = false
		t.round = 1
		return nil
	}

	if wasActive {
		t.activeID = t.combatants[min(idx, len(t.combatants)-1)].ID
	}
	return nil
}

// UpdateCombatant gives fn mutable access to one combatant for the duration
// of the call and re-sorts afterwards. fn must not change the id.
func (t *Tracker) UpdateCombatant(id int, fn func(c *Combatant)) error {
	idx := t.indexOf(id)
	if idx < 0 {
		return dnderr.CombatantNotFound(id)
	}

	fn(&t.combatants[idx])
	if got := t.combatants[idx].ID; got != id {
		panic(fmt.Sprintf("combat: combatant id changed from %d to %d during update", id, got))
	}

	sortCombatants(t.combatants)
	return nil
}

// Advance ends the active combatant's turn and moves the cursor forward.
//
// The conceding combatant's conditions decay first. The cursor then steps
// forward, wrapping to the top of the order and starting a new round when it
// passes the last combatant. With skipUnconscious the cursor keeps stepping
// past unconscious combatants; if nobody is eligible it comes back to where it
// started. The boolean is false only when there are no combatants.
func (t *Tracker) Advance(skipUnconscious bool) (TurnReport, bool) {
	if len(t.combatants) == 0 {
		return TurnReport{}, false
	}

	t.ensureCursor()
	from := t.activeIndex()

	report := TurnReport{
		PreviousID:    t.combatants[from].ID,
		PreviousRound: t.round,
	}
	report.Expired = t.combatants[from].decayConditions()

	to, wraps := t.stepForward(from, skipUnconscious)
	t.round += wraps
	t.activeID = t.combatants[to].ID

	report.CurrentID = t.activeID
	report.Round = t.round
	return report, true
}

// Rewind moves the cursor back one turn, stepping into the previous round when
// it wraps from the top to the bottom of the order. The round never drops
// below 1 and conditions are left untouched.
func (t *Tracker) Rewind(skipUnconscious bool) (TurnReport, bool) {
	if len(t.combatants) == 0 {
		return TurnReport{}, false
	}

	t.ensureCursor()
	from := t.activeIndex()

	report := TurnReport{
		PreviousID:    t.combatants[from].ID,
		PreviousRound: t.round,
	}

	to, wraps := t.stepBackward(from, skipUnconscious)
	t.round = max(1, t.round-wraps)
	t.activeID = t.combatants[to].ID

	report.CurrentID = t.activeID
	report.Round = t.round
	return report, true
}

func (t *Tracker) stepForward(from int, skipUnconscious bool) (int, int) {
	size := len(t.combatants)
	wraps := 0
	index := from
	for {
		index = (index + 1) % size
		if index == 0 && index != from {
			wraps++
		}
		if !skipUnconscious || t.combatants[index].Conscious || index == from {
			return index, wraps
		}
	}
}

func (t *Tracker) stepBackward(from int, skipUnconscious bool) (int, int) {
	size := len(t.combatants)
	wraps := 0
	index := from
	for {
		index = (index - 1 + size) % size
		if index == size-1 && index != from {
			wraps++
		}
		if !skipUnconscious || t.combatants[index].Conscious || index == from {
			return index, wraps
		}
	}
}

// ensureCursor points an unset cursor at the first combatant in order, moving
// past unconscious combatants when the tracker's policy says so.
func (t *Tracker) ensureCursor() {
	if len(t.combatants) == 0 {
		t.hasActive = false
		return
	}
	if t.hasActive {
		return
	}

	index := 0
	if t.skipUnconscious && !t.combatants[0].Conscious {
		// Starting at 0 a wrap can only land back on 0, which never counts.
		index, _ = t.stepForward(0, true)
	}
	t.activeID = t.combatants[index].ID
	t.hasActive = true
}

func (t *Tracker) activeIndex() int {
	if !t.hasActive {
		return -1
	}
	idx := t.indexOf(t.activeID)
	if idx < 0 {
		panic(fmt.Sprintf("combat: active combatant %d is not in the tracker", t.activeID))
	}
	return idx
}

func (t *Tracker) indexOf(id int) int {
	return slices.IndexFunc(t.combatants, func(c Combatant) bool {
		return c.ID == id
	})
}

func mustBeUnique(list []Combatant) {
	if id, dup := firstDuplicateID(list); dup {
		panic(fmt.Sprintf("combat: duplicate combatant id %d", id))
	}
}

func firstDuplicateID(list []Combatant) (int, bool) {
	seen := make(map[int]struct{}, len(list))
	for _, c := range list {
		if _, ok := seen[c.ID]; ok {
			return c.ID, true
		}
		seen[c.ID] = struct{}{}
	}
	return 0, false
}
