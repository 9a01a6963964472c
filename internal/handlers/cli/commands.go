package cli

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/KirkDiggler/initiative-tracker/internal/dice"
	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/KirkDiggler/initiative-tracker/internal/preferences"
	"github.com/KirkDiggler/initiative-tracker/internal/roster"
	"github.com/KirkDiggler/initiative-tracker/internal/services/encounter"
)

type command struct {
	usage   string
	summary string
	run     func(h *Handler, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":       {usage: "help", summary: "show this list", run: (*Handler).help},
		"list":       {usage: "list", summary: "show the initiative order", run: (*Handler).list},
		"add":        {usage: "add <name> <init> [dex] [pc]", summary: "add a combatant", run: (*Handler).add},
		"char":       {usage: "char <name> [count]", summary: "add roster characters", run: (*Handler).addCharacter},
		"group":      {usage: "group <name>", summary: "add a roster group", run: (*Handler).addGroup},
		"monster":    {usage: "monster <name> [count] [roll]", summary: "add SRD monsters, optionally rolling HP", run: (*Handler).addMonster},
		"roster":     {usage: "roster [text] [#tag ...]", summary: "search the roster", run: (*Handler).searchRoster},
		"import":     {usage: "import <monster> [monster ...]", summary: "add SRD monsters to the roster", run: (*Handler).importMonsters},
		"naming":     {usage: "naming [pattern] [start] [width]", summary: "show or change how copies are numbered", run: (*Handler).naming},
		"roll":       {usage: "roll <id|all> [adv|dis]", summary: "roll initiative", run: (*Handler).roll},
		"init":       {usage: "init <id> <value>", summary: "set initiative", run: (*Handler).setInitiative},
		"hp":         {usage: "hp <id> <value>", summary: "set hit points", run: (*Handler).setHitPoints},
		"note":       {usage: "note <id> <text>", summary: "set notes", run: (*Handler).setNotes},
		"remove":     {usage: "remove <id>", summary: "remove a combatant", run: (*Handler).remove},
		"next":       {usage: "next", summary: "end the current turn", run: (*Handler).next},
		"prev":       {usage: "prev", summary: "go back one turn", run: (*Handler).prev},
		"cond":       {usage: "cond <id> <name> <rounds>", summary: "apply a condition", run: (*Handler).applyCondition},
		"uncond":     {usage: "uncond <id> <name>", summary: "remove a condition", run: (*Handler).removeCondition},
		"save-death": {usage: "save-death <id> success|failure|reset", summary: "record a death save", run: (*Handler).deathSave},
		"down":       {usage: "down <id>", summary: "mark unconscious", run: (*Handler).down},
		"up":         {usage: "up <id>", summary: "mark conscious", run: (*Handler).up},
		"undo":       {usage: "undo", summary: "undo the last change", run: (*Handler).undo},
		"redo":       {usage: "redo", summary: "redo the last undone change", run: (*Handler).redo},
		"save":       {usage: "save [path]", summary: "save the encounter to a file", run: (*Handler).save},
		"load":       {usage: "load <path>", summary: "load an encounter file", run: (*Handler).load},
		"theme":      {usage: "theme light|dark", summary: "switch the color theme", run: (*Handler).theme},
		"streamer":   {usage: "streamer on|off", summary: "hide NPC hit points and notes", run: (*Handler).streamer},
		"quit":       {usage: "quit", summary: "leave the tracker"},
		"exit":       {usage: "exit", summary: "leave the tracker"},
	}
}

func usageError(name string) error {
	return dnderr.InvalidArgumentf("usage: %s", commands[name].usage)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, dnderr.InvalidArgumentf("%q is not a combatant id", s)
	}
	return id, nil
}

func parseNumber(what, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, dnderr.InvalidArgumentf("%s must be a number, got %q", what, s)
	}
	return n, nil
}

func (h *Handler) help(_ context.Context, _ []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		if name == "exit" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		h.printf("  %-38s %s\n", commands[name].usage, commands[name].summary)
	}
	return nil
}

func (h *Handler) list(ctx context.Context, _ []string) error {
	enc, err := h.service.GetEncounter(ctx, h.encounterID)
	if err != nil {
		return err
	}

	h.outMu.Lock()
	defer h.outMu.Unlock()
	return renderEncounter(h.out, h.renderer, enc, h.Preferences())
}

func (h *Handler) add(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 4 {
		return usageError("add")
	}

	input := &encounter.AddCombatantInput{Name: args[0]}
	initiative, err := parseNumber("initiative", args[1])
	if err != nil {
		return err
	}
	input.Initiative = initiative

	for _, arg := range args[2:] {
		if strings.EqualFold(arg, "pc") {
			input.IsPC = true
			continue
		}
		dex, err := parseNumber("dex modifier", arg)
		if err != nil {
			return err
		}
		input.DexMod = dex
	}

	added, err := h.service.AddCombatant(ctx, h.encounterID, input)
	if err != nil {
		return err
	}

	h.printf("Added %s (id %d)\n", added.Name, added.ID)
	return nil
}

func (h *Handler) addCharacter(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return usageError("char")
	}

	count := 1
	if len(args) == 2 {
		n, err := parseNumber("count", args[1])
		if err != nil {
			return err
		}
		count = n
	}

	added, err := h.service.AddCharacter(ctx, h.encounterID, args[0], count)
	if err != nil {
		return err
	}

	h.printAdded(added)
	return nil
}

func (h *Handler) addGroup(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("group")
	}

	added, err := h.service.AddGroup(ctx, h.encounterID, strings.Join(args, " "))
	if err != nil {
		return err
	}

	h.printAdded(added)
	return nil
}

func (h *Handler) addMonster(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("monster")
	}

	input := &encounter.AddMonsterInput{Count: 1}
	if strings.EqualFold(args[len(args)-1], "roll") {
		input.RollHP = true
		args = args[:len(args)-1]
	}
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil {
			input.Count = n
			args = args[:len(args)-1]
		}
	}
	if len(args) == 0 {
		return usageError("monster")
	}
	input.Name = strings.Join(args, " ")

	added, err := h.service.AddMonster(ctx, h.encounterID, input)
	if err != nil {
		return err
	}

	h.printAdded(added)
	return nil
}

func (h *Handler) printAdded(added []combat.Combatant) {
	for _, c := range added {
		h.printf("Added %s (id %d)\n", c.Name, c.ID)
	}
}

func (h *Handler) searchRoster(_ context.Context, args []string) error {
	var words, tags []string
	for _, arg := range args {
		if tag, ok := strings.CutPrefix(arg, "#"); ok {
			tags = append(tags, tag)
			continue
		}
		words = append(words, arg)
	}

	found := h.library.FilterCharacters(strings.Join(words, " "), tags)
	if len(found) == 0 {
		h.printf("No matching characters\n")
		return nil
	}

	for _, c := range found {
		kind := "NPC"
		if c.IsPC {
			kind = "PC"
		}
		h.printf("  %-20s %-3s dex %+d  %s\n", c.Name, kind, c.DexMod, strings.Join(c.Tags, ", "))
	}
	if len(words) == 0 && len(tags) == 0 {
		for _, g := range h.library.Groups() {
			h.printf("  group: %s\n", g.Name)
		}
	}
	return nil
}

func (h *Handler) importMonsters(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("import")
	}

	characters, err := h.service.ImportMonsters(ctx, args)
	if err != nil {
		return err
	}

	for _, c := range characters {
		h.printf("Imported %s (HP %d, AC %d)\n", c.Name, c.DefaultHP, c.DefaultAC)
	}
	return nil
}

// naming changes the names given to copies for the rest of the session.
// A width turns on zero padding.
func (h *Handler) naming(_ context.Context, args []string) error {
	if len(args) == 0 {
		h.printNaming(h.library.Naming())
		return nil
	}
	if len(args) > 3 {
		return usageError("naming")
	}

	n := roster.DefaultNaming()
	n.Pattern = args[0]
	if !strings.Contains(n.Pattern, "%index") {
		return dnderr.InvalidArgument("naming pattern must contain %index")
	}
	if len(args) > 1 {
		start, err := parseNumber("start index", args[1])
		if err != nil {
			return err
		}
		n.StartIndex = start
	}
	if len(args) > 2 {
		width, err := parseNumber("width", args[2])
		if err != nil {
			return err
		}
		if width < 0 {
			return dnderr.InvalidArgumentf("width must not be negative, got %d", width)
		}
		n.ZeroPad = width > 0
		if width > 0 {
			n.Width = width
		}
	}

	h.library.SetNaming(n)
	h.printNaming(n)
	return nil
}

func (h *Handler) printNaming(n roster.Naming) {
	h.printf("Copies are named %s, %s, ...\n",
		n.FormatName("Goblin", n.StartIndex),
		n.FormatName("Goblin", n.StartIndex+1))
}

func (h *Handler) roll(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return usageError("roll")
	}

	mode := dice.ModeNormal
	if len(args) == 2 {
		parsed, err := dice.ParseMode(args[1])
		if err != nil {
			return err
		}
		mode = parsed
	}

	if strings.EqualFold(args[0], "all") {
		results, err := h.service.RollAllInitiative(ctx, h.encounterID, mode)
		if err != nil {
			return err
		}
		h.printf("Rolled initiative for %d combatants\n", len(results))
		return h.list(ctx, nil)
	}

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	result, err := h.service.RollInitiative(ctx, h.encounterID, id, mode)
	if err != nil {
		return err
	}

	h.printf("Initiative %s\n", result.String())
	return nil
}

func (h *Handler) setInitiative(ctx context.Context, args []string) error {
	return h.updateNumber(ctx, args, "init", "initiative", func(in *encounter.UpdateCombatantInput, n int) {
		in.Initiative = &n
	})
}

func (h *Handler) setHitPoints(ctx context.Context, args []string) error {
	return h.updateNumber(ctx, args, "hp", "hit points", func(in *encounter.UpdateCombatantInput, n int) {
		in.HitPoints = &n
	})
}

func (h *Handler) updateNumber(ctx context.Context, args []string, name, what string, set func(in *encounter.UpdateCombatantInput, n int)) error {
	if len(args) != 2 {
		return usageError(name)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	n, err := parseNumber(what, args[1])
	if err != nil {
		return err
	}

	input := &encounter.UpdateCombatantInput{}
	set(input, n)
	updated, err := h.service.UpdateCombatant(ctx, h.encounterID, id, input)
	if err != nil {
		return err
	}

	h.printf("%s %s is now %d\n", updated.Name, what, n)
	return nil
}

func (h *Handler) setNotes(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("note")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	notes := strings.Join(args[1:], " ")
	updated, err := h.service.UpdateCombatant(ctx, h.encounterID, id, &encounter.UpdateCombatantInput{Notes: &notes})
	if err != nil {
		return err
	}

	h.printf("Updated notes for %s\n", updated.Name)
	return nil
}

func (h *Handler) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("remove")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	if err := h.service.RemoveCombatant(ctx, h.encounterID, id); err != nil {
		return err
	}

	h.printf("Removed %d\n", id)
	return nil
}

func (h *Handler) next(ctx context.Context, _ []string) error {
	result, err := h.service.NextTurn(ctx, h.encounterID)
	if err != nil {
		return err
	}
	h.printTurn(result)
	return nil
}

func (h *Handler) prev(ctx context.Context, _ []string) error {
	result, err := h.service.PreviousTurn(ctx, h.encounterID)
	if err != nil {
		return err
	}
	h.printTurn(result)
	return nil
}

func (h *Handler) printTurn(result *encounter.TurnResult) {
	if !result.Moved {
		h.printf("No combatants yet\n")
		return
	}
	h.printf("Round %d: %s's turn\n", result.Report.Round, result.Current.Name)
}

func (h *Handler) applyCondition(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return usageError("cond")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	rounds, err := parseNumber("rounds", args[len(args)-1])
	if err != nil {
		return err
	}
	name := strings.Join(args[1:len(args)-1], " ")

	if err := h.service.ApplyCondition(ctx, h.encounterID, id, name, rounds); err != nil {
		return err
	}

	h.printf("Applied %s for %d rounds\n", name, rounds)
	return nil
}

func (h *Handler) removeCondition(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("uncond")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	name := strings.Join(args[1:], " ")

	if err := h.service.RemoveCondition(ctx, h.encounterID, id, name); err != nil {
		return err
	}

	h.printf("Removed %s\n", name)
	return nil
}

func (h *Handler) deathSave(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("save-death")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	outcome, err := encounter.ParseDeathSaveOutcome(args[1])
	if err != nil {
		return err
	}

	saves, err := h.service.RecordDeathSave(ctx, h.encounterID, id, outcome)
	if err != nil {
		return err
	}

	switch saves.State() {
	case combat.DeathSaveStateStable:
		h.printf("Stable (%d successes, %d failures)\n", saves.Successes, saves.Failures)
	case combat.DeathSaveStateDead:
		h.printf("Dead (%d successes, %d failures)\n", saves.Successes, saves.Failures)
	default:
		h.printf("Death saves: %d successes, %d failures\n", saves.Successes, saves.Failures)
	}
	return nil
}

func (h *Handler) down(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("down")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := h.service.KnockOut(ctx, h.encounterID, id); err != nil {
		return err
	}

	h.printf("%d is down\n", id)
	return nil
}

func (h *Handler) up(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("up")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := h.service.Revive(ctx, h.encounterID, id); err != nil {
		return err
	}

	h.printf("%d is back up\n", id)
	return nil
}

func (h *Handler) undo(ctx context.Context, _ []string) error {
	label, err := h.service.Undo(ctx, h.encounterID)
	if err != nil {
		return err
	}
	h.printf("Undid %s\n", label)
	return nil
}

func (h *Handler) redo(ctx context.Context, _ []string) error {
	label, err := h.service.Redo(ctx, h.encounterID)
	if err != nil {
		return err
	}
	h.printf("Redid %s\n", label)
	return nil
}

func (h *Handler) save(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return usageError("save")
	}

	path := h.SavePath()
	if len(args) == 1 {
		path = args[0]
	}

	if err := h.service.ExportFile(ctx, h.encounterID, path); err != nil {
		return err
	}
	h.setSavePath(path)

	h.printf("Saved to %s\n", path)
	return nil
}

func (h *Handler) load(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("load")
	}

	if err := h.service.ImportFile(ctx, h.encounterID, args[0]); err != nil {
		return err
	}
	h.setSavePath(args[0])

	h.printf("Loaded %s\n", args[0])
	return h.list(ctx, nil)
}

func (h *Handler) theme(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("theme")
	}
	theme := strings.ToLower(args[0])

	if err := h.updatePreferences(func(s *preferences.Settings) { s.Theme = theme }); err != nil {
		return err
	}
	h.printf("Theme set to %s\n", theme)
	return nil
}

func (h *Handler) streamer(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("streamer")
	}

	var on bool
	switch strings.ToLower(args[0]) {
	case "on":
		on = true
	case "off":
	default:
		return usageError("streamer")
	}

	if err := h.updatePreferences(func(s *preferences.Settings) { s.StreamerMode = on }); err != nil {
		return err
	}
	h.printf("Streamer mode %s\n", strings.ToLower(args[0]))
	return nil
}
