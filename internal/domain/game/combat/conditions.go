package combat

import "golang.org/x/text/cases"

// Condition is a named, timed status effect on a combatant
type Condition struct {
	Name            string `json:"name"`
	RemainingRounds int    `json:"remaining_rounds"`
}

// Expired reports whether the condition should no longer be on its owner
func (c Condition) Expired() bool {
	return c.RemainingRounds <= 0
}

// HasCondition checks if a combatant has a condition, ignoring case
func (c *Combatant) HasCondition(name string) bool {
	return c.conditionIndex(name) >= 0
}

// ApplyCondition adds a condition to the combatant. Re-applying a condition
// that is already present keeps the longer of the two durations.
// Non-positive durations are ignored.
func (c *Combatant) ApplyCondition(name string, rounds int) {
	if rounds <= 0 {
		return
	}

	if i := c.conditionIndex(name); i >= 0 {
		if rounds > c.Conditions[i].RemainingRounds {
			c.Conditions[i].RemainingRounds = rounds
		}
		return
	}

	c.Conditions = append(c.Conditions, Condition{Name: name, RemainingRounds: rounds})
}

// RemoveCondition removes a condition by name and reports whether it was present
func (c *Combatant) RemoveCondition(name string) bool {
	i := c.conditionIndex(name)
	if i < 0 {
		return false
	}
	c.Conditions = append(c.Conditions[:i], c.Conditions[i+1:]...)
	if len(c.Conditions) == 0 {
		c.Conditions = nil
	}
	return true
}

func (c *Combatant) conditionIndex(name string) int {
	fold := cases.Fold()
	key := fold.String(name)
	for i, cond := range c.Conditions {
		if fold.String(cond.Name) == key {
			return i
		}
	}
	return -1
}

// decayConditions ticks every condition down by one round and drops the ones
// that ran out. It must run exactly once per turn the combatant concedes, so
// it is only reachable through Tracker.Advance.
func (c *Combatant) decayConditions() []Condition {
	for i := range c.Conditions {
		if c.Conditions[i].RemainingRounds > 0 {
			c.Conditions[i].RemainingRounds--
		}
	}

	var expired []Condition
	kept := c.Conditions[:0]
	for _, cond := range c.Conditions {
		if cond.Expired() {
			expired = append(expired, cond)
			continue
		}
		kept = append(kept, cond)
	}
	if len(kept) == 0 {
		// A combatant without conditions always holds nil
		kept = nil
	}
	c.Conditions = kept

	return expired
}
