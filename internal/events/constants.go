package events

// Event type constants
const (
	// Turn order events
	EventTypeOnTurnStart       EventType = "on_turn_start"
	EventTypeOnRoundStart      EventType = "on_round_start"
	EventTypeOnInitiativeRoll  EventType = "on_initiative_roll"
	EventTypeOnCombatantAdd    EventType = "on_combatant_add"
	EventTypeOnCombatantRemove EventType = "on_combatant_remove"

	// Combatant state events
	EventTypeOnConditionExpire EventType = "on_condition_expire"
	EventTypeOnDeathSave       EventType = "on_death_save"
)

// Priority levels for listener order
const (
	PriorityState   = 0   // Keep derived state in sync
	PriorityLogging = 100 // Combat log and structured logs
	PriorityDisplay = 200 // Terminal output
)
