package cli

import (
	"github.com/KirkDiggler/initiative-tracker/internal/events"
)

const listenerID = "cli-announcer"

// Subscribe prints round changes and expired conditions of the handler's
// encounter as they happen. It returns a function that removes the listeners.
func (h *Handler) Subscribe(bus *events.Bus) func() {
	listener := &events.ListenerFunc{
		Name:   listenerID,
		Order:  events.PriorityDisplay,
		Handle: h.announce,
	}

	types := []events.EventType{
		events.EventTypeOnRoundStart,
		events.EventTypeOnConditionExpire,
	}
	for _, t := range types {
		bus.Subscribe(t, listener)
	}

	return func() {
		for _, t := range types {
			bus.Unsubscribe(t, listenerID)
		}
	}
}

func (h *Handler) announce(event events.Event) error {
	if event.GetEncounterID() != h.encounterID {
		return nil
	}

	switch e := event.(type) {
	case *events.RoundStartedEvent:
		h.printf("=== Round %d ===\n", e.GetRound())
	case *events.ConditionExpiredEvent:
		h.printf("%s is no longer %s\n", e.Combatant.Name, e.Condition.Name)
	}
	return nil
}
