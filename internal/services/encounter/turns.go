package encounter

import (
	"context"
	"fmt"
	"strings"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/KirkDiggler/initiative-tracker/internal/events"
)

// TurnResult describes the encounter after NextTurn or PreviousTurn
type TurnResult struct {
	Encounter *combat.Encounter
	Report    combat.TurnReport
	Current   combat.Combatant
	// Moved is false when the encounter has no combatants
	Moved bool
}

// DeathSaveOutcome is what happened on a death saving throw
type DeathSaveOutcome string

const (
	DeathSaveSuccess DeathSaveOutcome = "success"
	DeathSaveFailure DeathSaveOutcome = "failure"
	DeathSaveReset   DeathSaveOutcome = "reset"
)

// ParseDeathSaveOutcome accepts the outcome names and their first letters
func ParseDeathSaveOutcome(s string) (DeathSaveOutcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "success":
		return DeathSaveSuccess, nil
	case "f", "failure", "fail":
		return DeathSaveFailure, nil
	case "r", "reset":
		return DeathSaveReset, nil
	default:
		return "", dnderr.InvalidArgumentf("unknown death save outcome %q", s)
	}
}

// NextTurn advances to the next turn. The conceding combatant's conditions
// decay and expired ones are reported through the event bus.
func (s *service) NextTurn(ctx context.Context, encounterID string) (*TurnResult, error) {
	result := &TurnResult{}
	enc, err := s.mutate(ctx, encounterID, "next turn", func(enc *combat.Encounter, t *combat.Tracker, ch *change) error {
		report, ok := t.Advance(enc.SkipUnconscious)
		if !ok {
			ch.unchanged = true
			return nil
		}
		result.Report = report
		result.Moved = true
		result.Current, _ = t.Current()

		if len(report.Expired) > 0 {
			previous, err := t.CombatantByID(report.PreviousID)
			if err != nil {
				return err
			}
			for _, cond := range report.Expired {
				ch.logf(fmt.Sprintf("%s is no longer %s", previous.Name, cond.Name))
				ch.emit(&events.ConditionExpiredEvent{
					BaseEvent: events.BaseEvent{
						Type:        events.EventTypeOnConditionExpire,
						EncounterID: enc.ID,
						Round:       report.PreviousRound,
					},
					Combatant: previous,
					Condition: cond,
				})
			}
		}

		if report.RoundChanged() {
			ch.emit(&events.RoundStartedEvent{
				BaseEvent:     base(events.EventTypeOnRoundStart, enc, t),
				PreviousRound: report.PreviousRound,
			})
		}

		ch.logf(fmt.Sprintf("%s's turn", result.Current.Name))
		ch.emit(&events.TurnStartedEvent{
			BaseEvent:  base(events.EventTypeOnTurnStart, enc, t),
			Combatant:  result.Current,
			PreviousID: report.PreviousID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Encounter = enc
	return result, nil
}

// PreviousTurn moves back one turn. Conditions are not restored; use Undo
// to take back a turn completely.
func (s *service) PreviousTurn(ctx context.Context, encounterID string) (*TurnResult, error) {
	result := &TurnResult{}
	enc, err := s.mutate(ctx, encounterID, "previous turn", func(enc *combat.Encounter, t *combat.Tracker, ch *change) error {
		report, ok := t.Rewind(enc.SkipUnconscious)
		if !ok {
			ch.unchanged = true
			return nil
		}
		result.Report = report
		result.Moved = true
		result.Current, _ = t.Current()

		ch.logf(fmt.Sprintf("Back to %s's turn", result.Current.Name))
		ch.emit(&events.TurnStartedEvent{
			BaseEvent:  base(events.EventTypeOnTurnStart, enc, t),
			Combatant:  result.Current,
			PreviousID: report.PreviousID,
			Backwards:  true,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Encounter = enc
	return result, nil
}

// ApplyCondition adds a timed condition to a combatant. Applying a condition
// the combatant already has keeps the longer duration.
func (s *service) ApplyCondition(ctx context.Context, encounterID string, combatantID int, name string, rounds int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return dnderr.InvalidArgument("condition name is required")
	}
	if rounds <= 0 {
		return dnderr.InvalidArgumentf("condition duration must be positive, got %d", rounds)
	}

	_, err := s.mutate(ctx, encounterID, fmt.Sprintf("apply %s to %d", name, combatantID), func(enc *combat.Encounter, t *combat.Tracker, ch *change) error {
		var target string
		err := t.UpdateCombatant(combatantID, func(c *combat.Combatant) {
			c.ApplyCondition(name, rounds)
			target = c.Name
		})
		if err != nil {
			return err
		}

		ch.logf(fmt.Sprintf("%s is %s for %d rounds", target, name, rounds))
		return nil
	})
	return err
}

// RemoveCondition removes a condition from a combatant
func (s *service) RemoveCondition(ctx context.Context, encounterID string, combatantID int, name string) error {
	_, err := s.mutate(ctx, encounterID, fmt.Sprintf("remove %s from %d", name, combatantID), func(enc *combat.Encounter, t *combat.Tracker, ch *change) error {
		var target string
		var removed bool
		err := t.UpdateCombatant(combatantID, func(c *combat.Combatant) {
			removed = c.RemoveCondition(name)
			target = c.Name
		})
		if err != nil {
			return err
		}
		if !removed {
			return dnderr.NotFoundf("%s does not have condition %q", target, name).
				WithMeta("combatant_id", combatantID)
		}

		ch.logf(fmt.Sprintf("%s is no longer %s", target, name))
		return nil
	})
	return err
}

// RecordDeathSave records a death save outcome for an unconscious combatant
func (s *service) RecordDeathSave(ctx context.Context, encounterID string, combatantID int, outcome DeathSaveOutcome) (combat.DeathSaves, error) {
	var saves combat.DeathSaves
	_, err := s.mutate(ctx, encounterID, fmt.Sprintf("death save %s for %d", outcome, combatantID), func(enc *combat.Encounter, t *combat.Tracker, ch *change) error {
		c, err := t.CombatantByID(combatantID)
		if err != nil {
			return err
		}
		if c.Conscious {
			return dnderr.InvalidArgumentf("%s is conscious and does not roll death saves", c.Name).
				WithMeta("combatant_id", combatantID)
		}

		previous := c.DeathSaves.State()
		var updateErr error
		err = t.UpdateCombatant(combatantID, func(c *combat.Combatant) {
			switch outcome {
			case DeathSaveSuccess:
				c.DeathSaves.RecordSuccess()
			case DeathSaveFailure:
				c.DeathSaves.RecordFailure()
			case DeathSaveReset:
				c.DeathSaves.Reset()
			default:
				updateErr = dnderr.InvalidArgumentf("unknown death save outcome %q", outcome)
			}
		})
		if err != nil {
			return err
		}
		if updateErr != nil {
			return updateErr
		}

		c, err = t.CombatantByID(combatantID)
		if err != nil {
			return err
		}
		saves = c.DeathSaves

		state := saves.State()
		switch {
		case state == previous && outcome != DeathSaveReset:
			ch.logf(fmt.Sprintf("%s death saves: %d successes, %d failures", c.Name, saves.Successes, saves.Failures))
		case state == combat.DeathSaveStateStable:
			ch.logf(fmt.Sprintf("%s is stable", c.Name))
		case state == combat.DeathSaveStateDead:
			ch.logf(fmt.Sprintf("%s has died", c.Name))
		default:
			ch.logf(fmt.Sprintf("%s death saves reset", c.Name))
		}

		ch.emit(&events.DeathSaveEvent{
			BaseEvent: base(events.EventTypeOnDeathSave, enc, t),
			Combatant: c,
			State:     state,
		})
		return nil
	})
	if err != nil {
		return combat.DeathSaves{}, err
	}

	return saves, nil
}

// KnockOut marks a combatant unconscious and starts fresh death saves
func (s *service) KnockOut(ctx context.Context, encounterID string, combatantID int) error {
	return s.setConscious(ctx, encounterID, combatantID, false)
}

// Revive marks a combatant conscious and clears its death saves
func (s *service) Revive(ctx context.Context, encounterID string, combatantID int) error {
	return s.setConscious(ctx, encounterID, combatantID, true)
}

func (s *service) setConscious(ctx context.Context, encounterID string, combatantID int, conscious bool) error {
	label := fmt.Sprintf("down %d", combatantID)
	if conscious {
		label = fmt.Sprintf("up %d", combatantID)
	}

	_, err := s.mutate(ctx, encounterID, label, func(enc *combat.Encounter, t *combat.Tracker, ch *change) error {
		var name string
		err := t.UpdateCombatant(combatantID, func(c *combat.Combatant) {
			name = c.Name
			if conscious {
				c.Revive()
				return
			}
			c.KnockOut()
		})
		if err != nil {
			return err
		}

		if conscious {
			ch.logf(fmt.Sprintf("%s is back on their feet", name))
		} else {
			ch.logf(fmt.Sprintf("%s is unconscious", name))
		}
		return nil
	})
	return err
}
