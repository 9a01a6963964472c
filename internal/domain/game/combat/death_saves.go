package combat

// MaxDeathSaves is the number of successes or failures that ends the saving sequence
const MaxDeathSaves = 3

// DeathSaveState is the derived state of a DeathSaves record
type DeathSaveState string

const (
	DeathSaveStateActive DeathSaveState = "active"
	DeathSaveStateStable DeathSaveState = "stable"
	DeathSaveStateDead   DeathSaveState = "dead"
)

// DeathSaves tracks death saving throws for a combatant at 0 HP.
// Stable and Dead are terminal; only Reset leaves them.
type DeathSaves struct {
	Successes int  `json:"successes"`
	Failures  int  `json:"failures"`
	Dead      bool `json:"dead"`
	Stable    bool `json:"stable"`
}

// RecordSuccess adds a successful save. Three successes stabilize the
// combatant; accumulated failures are kept as they were.
func (d *DeathSaves) RecordSuccess() {
	if d.Dead || d.Stable {
		return
	}
	if d.Successes < MaxDeathSaves {
		d.Successes++
	}
	if d.Successes >= MaxDeathSaves {
		d.Stable = true
	}
}

// RecordFailure adds a failed save. Three failures kill the combatant.
func (d *DeathSaves) RecordFailure() {
	if d.Stable || d.Dead {
		return
	}
	if d.Failures < MaxDeathSaves {
		d.Failures++
	}
	if d.Failures >= MaxDeathSaves {
		d.Dead = true
	}
}

// Reset returns the record to the active state with no saves recorded
func (d *DeathSaves) Reset() {
	*d = DeathSaves{}
}

// State returns the current state of the record
func (d DeathSaves) State() DeathSaveState {
	switch {
	case d.Dead:
		return DeathSaveStateDead
	case d.Stable:
		return DeathSaveStateStable
	default:
		return DeathSaveStateActive
	}
}
