package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	"github.com/KirkDiggler/initiative-tracker/internal/preferences"
)

// palette holds the cell styles of one theme
type palette struct {
	header lipgloss.Style
	row    lipgloss.Style
	active lipgloss.Style
	down   lipgloss.Style
}

func newPalette(r *lipgloss.Renderer, theme string) palette {
	accent, muted := lipgloss.Color("4"), lipgloss.Color("8")
	if theme == preferences.ThemeDark {
		accent, muted = lipgloss.Color("11"), lipgloss.Color("7")
	}

	base := r.NewStyle().Padding(0, 1)
	return palette{
		header: base.Bold(true),
		row:    base,
		active: base.Bold(true).Foreground(accent),
		down:   base.Foreground(muted),
	}
}

// renderEncounter writes the round header and a table with one row per
// combatant. Streamer mode hides hit points and notes of non-player
// combatants.
func renderEncounter(w io.Writer, r *lipgloss.Renderer, enc *combat.Encounter, prefs preferences.Settings) error {
	state := enc.State
	if _, err := fmt.Fprintf(w, "%s, round %d\n", enc.Name, max(1, state.Round)); err != nil {
		return err
	}
	if len(state.Combatants) == 0 {
		_, err := fmt.Fprintln(w, "  no combatants")
		return err
	}

	rows := make([][]string, len(state.Combatants))
	for i, c := range state.Combatants {
		marker := ""
		if i == state.CursorIndex {
			marker = ">"
		}
		rows[i] = []string{
			marker,
			fmt.Sprint(c.ID),
			displayName(c),
			fmt.Sprint(c.Initiative),
			hitPoints(c, prefs.StreamerMode),
			armorClass(c),
			conditions(c),
			notes(c, prefs.StreamerMode),
		}
	}

	p := newPalette(r, prefs.Theme)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.row).
		BorderHeader(true).
		BorderRow(false).
		Headers("", "ID", "NAME", "INIT", "HP", "AC", "CONDITIONS", "NOTES").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return p.header
			case row < 0 || row >= len(state.Combatants):
				return p.row
			case row == state.CursorIndex:
				return p.active
			case !state.Combatants[row].Conscious:
				return p.down
			}
			return p.row
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func displayName(c combat.Combatant) string {
	name := c.Name
	if c.IsPlayerCharacter {
		name += " (PC)"
	}
	if c.Conscious {
		return name
	}

	switch c.DeathSaves.State() {
	case combat.DeathSaveStateDead:
		return name + " [dead]"
	case combat.DeathSaveStateStable:
		return name + " [stable]"
	default:
		return fmt.Sprintf("%s [down %d/%d]", name, c.DeathSaves.Successes, c.DeathSaves.Failures)
	}
}

func hitPoints(c combat.Combatant, streamer bool) string {
	if streamer && !c.IsPlayerCharacter {
		return "?"
	}
	if c.HitPoints == 0 {
		return "-"
	}
	return fmt.Sprint(c.HitPoints)
}

func armorClass(c combat.Combatant) string {
	if c.ArmorClass == 0 {
		return "-"
	}
	return fmt.Sprint(c.ArmorClass)
}

func conditions(c combat.Combatant) string {
	if len(c.Conditions) == 0 {
		return "-"
	}
	parts := make([]string, len(c.Conditions))
	for i, cond := range c.Conditions {
		parts[i] = fmt.Sprintf("%s(%d)", cond.Name, cond.RemainingRounds)
	}
	return strings.Join(parts, ", ")
}

func notes(c combat.Combatant, streamer bool) string {
	if streamer && !c.IsPlayerCharacter {
		return ""
	}
	return c.Notes
}
