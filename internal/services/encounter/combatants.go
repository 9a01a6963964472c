package encounter

import (
	"context"
	"fmt"
	"strings"

	"github.com/KirkDiggler/initiative-tracker/internal/clients/dnd5e"
	"github.com/KirkDiggler/initiative-tracker/internal/dice"
	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/KirkDiggler/initiative-tracker/internal/events"
	"github.com/KirkDiggler/initiative-tracker/internal/roster"
	"go.uber.org/zap"
)

// AddCombatantInput contains data for adding an ad-hoc combatant
type AddCombatantInput struct {
	Name       string
	Initiative int
	DexMod     int
	IsPC       bool
	HitPoints  int
	ArmorClass int
	Notes      string
}

// AddMonsterInput contains data for adding SRD monsters
type AddMonsterInput struct {
	Name   string // Display name or API key, e.g. "Giant Spider"
	Count  int    // Defaults to 1
	RollHP bool   // Roll each copy's hit dice instead of using average HP
}

// UpdateCombatantInput lists the fields to change. Nil fields are left alone.
type UpdateCombatantInput struct {
	Name       *string
	Initiative *int
	DexMod     *int
	IsPC       *bool
	HitPoints  *int
	ArmorClass *int
	Notes      *string
}

// nextCombatantID returns one past the highest id in the tracker
func nextCombatantID(t *combat.Tracker) int {
	next := 1
	for _, c := range t.Combatants() {
		if c.ID >= next {
			next = c.ID + 1
		}
	}
	return next
}

func (s *service) addAll(enc *combat.Encounter, t *combat.Tracker, ch *change, added []combat.Combatant) {
	for _, c := range added {
		t.AddCombatant(c)
		ch.logf(fmt.Sprintf("%s joined the encounter", c.Name))
		ch.emit(&events.CombatantAddedEvent{
			BaseEvent: base(events.EventTypeOnCombatantAdd, enc, t),
			Combatant: c,
		})
	}
}

// AddCombatant adds a single ad-hoc combatant
func (s *service) AddCombatant(ctx context.Context, encounterID string, input *AddCombatantInput) (*combat.Combatant, error) {
	if input == nil {
		return nil, dnderr.InvalidArgument("input cannot be nil")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, dnderr.InvalidArgument("combatant name is required")
	}

	var added combat.Combatant
	_, err := s.mutate(ctx, encounterID, "add "+name, func(enc *combat.Encounter, t *combat.Tracker, ch *change) error {
		added = combat.NewCombatant(nextCombatantID(t), name, input.Initiative, input.DexMod, input.IsPC)
		added.HitPoints = input.HitPoints
		added.ArmorClass = input.ArmorClass
		added.Notes = input.Notes

		s.addAll(enc, t, ch, []combat.Combatant{added})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &added, nil
}

// AddCharacter adds count copies of a roster character
func (s *service) AddCharacter(ctx context.Context, encounterID, name string, count int) ([]combat.Combatant, error) {
	var added []combat.Combatant
	_, err := s.mutate(ctx, encounterID, "add "+name, func(enc *combat.Encounter, t *combat.Tracker, ch *change) error {
		nextID := nextCombatantID(t)
		list, err := s.library.InstantiateCharacter(name, count, s.library.Naming(), &nextID)
		if err != nil {
			return err
		}
		added = list
		s.addAll(enc, t, ch, added)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return added, nil
}

// AddGroup adds every member of a roster group
func (s *service) AddGroup(ctx context.Context, encounterID, name string) ([]combat.Combatant, error) {
	var added []combat.Combatant
	_, err := s.mutate(ctx, encounterID, "add group "+name, func(enc *combat.Encounter, t *combat.Tracker, ch *change) error {
		nextID := nextCombatantID(t)
		list, err := s.library.InstantiateGroup(name, &nextID)
		if err != nil {
			return err
		}
		added = list
		s.addAll(enc, t, ch, added)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return added, nil
}

// AddMonster looks up an SRD monster, remembers it in the roster and adds copies of it
func (s *service) AddMonster(ctx context.Context, encounterID string, input *AddMonsterInput) ([]combat.Combatant, error) {
	if input == nil {
		return nil, dnderr.InvalidArgument("input cannot be nil")
	}
	if s.monsterClient == nil {
		return nil, dnderr.New(dnderr.CodeInternal, "monster lookup is not configured")
	}
	key := dnd5e.MonsterKey(input.Name)
	if key == "" {
		return nil, dnderr.InvalidArgument("monster name is required")
	}
	count := input.Count
	if count == 0 {
		count = 1
	}

	// Fetch before taking the lock; the API call can be slow
	monster, err := s.monsterClient.GetMonster(ctx, key)
	if err != nil {
		return nil, dnderr.Wrapf(err, "failed to look up monster '%s'", input.Name)
	}

	character := s.remember(monster)
	s.saveRoster()

	var added []combat.Combatant
	_, err = s.mutate(ctx, encounterID, "add "+character.Name, func(enc *combat.Encounter, t *combat.Tracker, ch *change) error {
		nextID := nextCombatantID(t)
		list, err := s.library.InstantiateCharacter(character.Name, count, s.library.Naming(), &nextID)
		if err != nil {
			return err
		}

		if input.RollHP && monster.HitDice != "" {
			for i := range list {
				result, err := dice.RollNotation(s.roller, monster.HitDice)
				if err != nil {
					return dnderr.Wrapf(err, "failed to roll hit points for %s", list[i].Name)
				}
				list[i].HitPoints = max(1, result.Total)
			}
		}

		added = list
		s.addAll(enc, t, ch, added)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return added, nil
}

// ImportMonsters looks up SRD monsters and remembers them in the roster
// without adding them to an encounter. Nothing is remembered unless every
// lookup succeeds.
func (s *service) ImportMonsters(ctx context.Context, names []string) ([]roster.Character, error) {
	if s.monsterClient == nil {
		return nil, dnderr.New(dnderr.CodeInternal, "monster lookup is not configured")
	}
	if len(names) == 0 {
		return nil, dnderr.InvalidArgument("at least one monster name is required")
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = dnd5e.MonsterKey(name)
		if keys[i] == "" {
			return nil, dnderr.InvalidArgument("monster name is required")
		}
	}

	monsters, err := s.monsterClient.GetMonsters(ctx, keys)
	if err != nil {
		return nil, dnderr.Wrap(err, "failed to look up monsters")
	}

	characters := make([]roster.Character, len(monsters))
	for i, monster := range monsters {
		characters[i] = s.remember(monster)
	}
	s.saveRoster()

	return characters, nil
}

// remember adds an SRD monster to the roster
func (s *service) remember(monster *dnd5e.Monster) roster.Character {
	character := monster.ToCharacter()
	s.library.AddCharacter(character)

	s.logger.Info("imported SRD monster",
		zap.String("key", monster.Key),
		zap.String("name", monster.Name),
		zap.Int("hp", monster.HitPoints),
		zap.Int("ac", monster.ArmorClass))
	return character
}

// saveRoster writes the roster's characters to the roster file. A failed
// write is logged and the characters stay in memory.
func (s *service) saveRoster() {
	if s.rosterFile == "" {
		return
	}
	if err := s.library.SaveCharacters(s.rosterFile); err != nil {
		s.logger.Warn("failed to save roster",
			zap.String("path", s.rosterFile),
			zap.Error(err))
	}
}

// RemoveCombatant removes a combatant from an encounter
func (s *service) RemoveCombatant(ctx context.Context, encounterID string, combatantID int) error {
	_, err := s.mutate(ctx, encounterID, fmt.Sprintf("remove %d", combatantID), func(enc *combat.Encounter, t *combat.Tracker, ch *change) error {
		removed, err := t.CombatantByID(combatantID)
		if err != nil {
			return err
		}
		if err := t.RemoveCombatant(combatantID); err != nil {
			return err
		}

		ch.logf(fmt.Sprintf("%s left the encounter", removed.Name))
		ch.emit(&events.CombatantRemovedEvent{
			BaseEvent: base(events.EventTypeOnCombatantRemove, enc, t),
			Combatant: removed,
		})
		return nil
	})
	return err
}

// UpdateCombatant changes the given fields of a combatant
func (s *service) UpdateCombatant(ctx context.Context, encounterID string, combatantID int, input *UpdateCombatantInput) (*combat.Combatant, error) {
	if input == nil {
		return nil, dnderr.InvalidArgument("input cannot be nil")
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, dnderr.InvalidArgument("combatant name cannot be empty")
	}

	var updated combat.Combatant
	_, err := s.mutate(ctx, encounterID, fmt.Sprintf("update %d", combatantID), func(enc *combat.Encounter, t *combat.Tracker, ch *change) error {
		err := t.UpdateCombatant(combatantID, func(c *combat.Combatant) {
			if input.Name != nil {
				c.Name = strings.TrimSpace(*input.Name)
			}
			if input.Initiative != nil {
				c.Initiative = *input.Initiative
			}
			if input.DexMod != nil {
				c.DexterityModifier = *input.DexMod
			}
			if input.IsPC != nil {
				c.IsPlayerCharacter = *input.IsPC
			}
			if input.HitPoints != nil {
				c.HitPoints = *input.HitPoints
			}
			if input.ArmorClass != nil {
				c.ArmorClass = *input.ArmorClass
			}
			if input.Notes != nil {
				c.Notes = *input.Notes
			}
		})
		if err != nil {
			return err
		}

		updated, err = t.CombatantByID(combatantID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// RollInitiative rolls a d20 plus the dexterity modifier for one combatant
// and re-sorts. The active combatant keeps the turn.
func (s *service) RollInitiative(ctx context.Context, encounterID string, combatantID int, mode dice.Mode) (*dice.RollResult, error) {
	var result *dice.RollResult
	_, err := s.mutate(ctx, encounterID, fmt.Sprintf("roll %d", combatantID), func(enc *combat.Encounter, t *combat.Tracker, ch *change) error {
		c, err := t.CombatantByID(combatantID)
		if err != nil {
			return err
		}

		result, err = dice.RollInitiative(s.roller, mode, c.DexterityModifier)
		if err != nil {
			return dnderr.Wrapf(err, "failed to roll initiative for %s", c.Name)
		}

		return s.writeInitiative(enc, t, ch, c, mode, result)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// RollAllInitiative rolls for every combatant, then starts the encounter over
// at round 1 with the cursor on the top of the new order
func (s *service) RollAllInitiative(ctx context.Context, encounterID string, mode dice.Mode) (map[int]*dice.RollResult, error) {
	results := make(map[int]*dice.RollResult)
	_, err := s.mutate(ctx, encounterID, "roll all", func(enc *combat.Encounter, t *combat.Tracker, ch *change) error {
		list := t.Combatants()
		for i := range list {
			result, err := dice.RollInitiative(s.roller, mode, list[i].DexterityModifier)
			if err != nil {
				return dnderr.Wrapf(err, "failed to roll initiative for %s", list[i].Name)
			}
			list[i].Initiative = result.Total
			results[list[i].ID] = result
		}

		t.SetCombatants(list)
		ch.logf("Initiative rolled for everyone")

		for _, c := range t.Combatants() {
			ch.emit(&events.InitiativeRolledEvent{
				BaseEvent: base(events.EventTypeOnInitiativeRoll, enc, t),
				Combatant: c,
				Mode:      mode,
				Result:    results[c.ID],
			})
		}
		if current, ok := t.Current(); ok {
			ch.emit(&events.TurnStartedEvent{
				BaseEvent:  base(events.EventTypeOnTurnStart, enc, t),
				Combatant:  current,
				PreviousID: current.ID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

func (s *service) writeInitiative(enc *combat.Encounter, t *combat.Tracker, ch *change, c combat.Combatant, mode dice.Mode, result *dice.RollResult) error {
	err := t.UpdateCombatant(c.ID, func(target *combat.Combatant) {
		target.Initiative = result.Total
	})
	if err != nil {
		return err
	}
	c.Initiative = result.Total

	ch.logf(fmt.Sprintf("%s rolled %s for initiative", c.Name, result.String()))
	ch.emit(&events.InitiativeRolledEvent{
		BaseEvent: base(events.EventTypeOnInitiativeRoll, enc, t),
		Combatant: c,
		Mode:      mode,
		Result:    result,
	})
	return nil
}
