package events

import (
	"github.com/KirkDiggler/initiative-tracker/internal/dice"
	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
)

// TurnStartedEvent is emitted when the cursor lands on a combatant
type TurnStartedEvent struct {
	BaseEvent
	Combatant  combat.Combatant
	PreviousID int
	Backwards  bool // Set when the turn was reached by rewinding
}

// RoundStartedEvent is emitted when advancing wraps to the top of the order
type RoundStartedEvent struct {
	BaseEvent
	PreviousRound int
}

// InitiativeRolledEvent is emitted after a rolled initiative was written to a combatant
type InitiativeRolledEvent struct {
	BaseEvent
	Combatant combat.Combatant
	Mode      dice.Mode
	Result    *dice.RollResult
}

// CombatantAddedEvent is emitted for every combatant that joins an encounter
type CombatantAddedEvent struct {
	BaseEvent
	Combatant combat.Combatant
}

// CombatantRemovedEvent is emitted after a combatant leaves an encounter
type CombatantRemovedEvent struct {
	BaseEvent
	Combatant combat.Combatant
}

// ConditionExpiredEvent is emitted for each condition that ran out at the
// end of its owner's turn
type ConditionExpiredEvent struct {
	BaseEvent
	Combatant combat.Combatant
	Condition combat.Condition
}

// DeathSaveEvent is emitted after a death save was recorded or reset
type DeathSaveEvent struct {
	BaseEvent
	Combatant combat.Combatant
	State     combat.DeathSaveState
}
