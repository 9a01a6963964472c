// Package roster holds reusable characters and encounter groups and turns
// them into combatants.
package roster

import (
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"golang.org/x/text/cases"
)

// SchemaVersion is the roster file version this package understands
const SchemaVersion = 2

// Character is a reusable stat block
type Character struct {
	Name         string   `json:"name" yaml:"name"`
	DexMod       int      `json:"dexMod" yaml:"dexMod"`
	IsPC         bool     `json:"isPC" yaml:"isPC"`
	Tags         []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	DefaultHP    int      `json:"defaultHP,omitempty" yaml:"defaultHP,omitempty"`
	DefaultAC    int      `json:"defaultAC,omitempty" yaml:"defaultAC,omitempty"`
	DefaultNotes string   `json:"defaultNotes,omitempty" yaml:"defaultNotes,omitempty"`
}

// HasTag checks for a tag, ignoring case
func (c Character) HasTag(tag string) bool {
	fold := cases.Fold()
	want := fold.String(tag)
	return slices.ContainsFunc(c.Tags, func(t string) bool {
		return fold.String(t) == want
	})
}

// GroupEntry is count copies of one character
type GroupEntry struct {
	Character string `json:"character" yaml:"character"`
	Count     int    `json:"count" yaml:"count"`
}

// Group is a named set of characters added together, e.g. an ambush
type Group struct {
	Name    string       `json:"name" yaml:"name"`
	Entries []GroupEntry `json:"entries" yaml:"entries"`
}

// Naming controls the names given to instantiated copies. Pattern may use
// %name and %index.
type Naming struct {
	Pattern    string `json:"pattern" yaml:"pattern"`
	StartIndex int    `json:"startIndex" yaml:"startIndex"`
	ZeroPad    bool   `json:"zeroPad" yaml:"zeroPad"`
	Width      int    `json:"width" yaml:"width"`
}

// DefaultNaming produces "Goblin 1", "Goblin 2", ...
func DefaultNaming() Naming {
	return Naming{
		Pattern:    "%name %index",
		StartIndex: 1,
		ZeroPad:    false,
		Width:      2,
	}
}

// FormatName applies the naming pattern to one copy
func (n Naming) FormatName(base string, index int) string {
	pattern := n.Pattern
	if pattern == "" {
		pattern = DefaultNaming().Pattern
	}

	indexValue := strconv.Itoa(index)
	if n.ZeroPad {
		width := n.Width
		if width <= 0 {
			width = 2
		}
		if pad := width - len(indexValue); pad > 0 {
			indexValue = strings.Repeat("0", pad) + indexValue
		}
	}

	return strings.NewReplacer("%name", base, "%index", indexValue).Replace(pattern)
}

// Library is an in-memory set of characters and groups. Lookups by name
// ignore case.
type Library struct {
	mu         sync.RWMutex
	characters []Character
	groups     []Group
	naming     Naming
}

// NewLibrary creates a library using the default naming options
func NewLibrary(characters []Character, groups []Group) *Library {
	return &Library{
		characters: slices.Clone(characters),
		groups:     slices.Clone(groups),
		naming:     DefaultNaming(),
	}
}

// Characters returns every character in load order
func (l *Library) Characters() []Character {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.characters)
}

// Groups returns every group in load order
func (l *Library) Groups() []Group {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.groups)
}

// Naming returns the naming options used by InstantiateGroup
func (l *Library) Naming() Naming {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.naming
}

// SetNaming replaces the naming options used by InstantiateGroup
func (l *Library) SetNaming(n Naming) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.naming = n
}

// AddCharacter adds a character, replacing any existing one with the same name
func (l *Library) AddCharacter(c Character) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.characterIndex(c.Name); i >= 0 {
		l.characters[i] = c
		return
	}
	l.characters = append(l.characters, c)
}

// FilterByTag returns the characters carrying tag
func (l *Library) FilterByTag(tag string) []Character {
	return l.FilterCharacters("", []string{tag})
}

// FilterCharacters returns the characters whose name contains text and that
// carry every tag in tags. Both comparisons ignore case.
func (l *Library) FilterCharacters(text string, tags []string) []Character {
	l.mu.RLock()
	defer l.mu.RUnlock()

	needle := cases.Fold().String(text)
	var matches []Character
	for _, c := range l.characters {
		if needle != "" && !strings.Contains(cases.Fold().String(c.Name), needle) {
			continue
		}
		if !hasAllTags(c, tags) {
			continue
		}
		matches = append(matches, c)
	}
	return matches
}

func hasAllTags(c Character, tags []string) bool {
	for _, tag := range tags {
		if !c.HasTag(tag) {
			return false
		}
	}
	return true
}

// FindCharacter looks a character up by name
func (l *Library) FindCharacter(name string) (Character, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.characterIndex(name)
	if i < 0 {
		return Character{}, false
	}
	return l.characters[i], true
}

// FindGroup looks a group up by name
func (l *Library) FindGroup(name string) (Group, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fold := cases.Fold()
	key := fold.String(name)
	for _, g := range l.groups {
		if fold.String(g.Name) == key {
			return g, true
		}
	}
	return Group{}, false
}

// InstantiateCharacter creates count copies of a character named with
// naming. Each copy takes the next id from nextID.
func (l *Library) InstantiateCharacter(name string, count int, naming Naming, nextID *int) ([]combat.Combatant, error) {
	if count <= 0 {
		return nil, dnderr.InvalidArgumentf("count must be positive, got %d", count)
	}

	character, ok := l.FindCharacter(name)
	if !ok {
		return nil, dnderr.NotFoundf("character %q not found", name).WithMeta("character", name)
	}

	out := make([]combat.Combatant, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, instantiate(character, naming.FormatName(character.Name, naming.StartIndex+i), nextID))
	}
	return out, nil
}

// InstantiateGroup creates combatants for every entry of a group. Numbering
// restarts at the naming start index for each entry. Nothing is consumed from
// nextID unless the whole group resolves.
func (l *Library) InstantiateGroup(name string, nextID *int) ([]combat.Combatant, error) {
	group, ok := l.FindGroup(name)
	if !ok {
		return nil, dnderr.NotFoundf("group %q not found", name).WithMeta("group", name)
	}
	naming := l.Naming()

	for _, entry := range group.Entries {
		if entry.Count < 0 {
			return nil, dnderr.InvalidArgumentf("group %q has a negative count for %q", group.Name, entry.Character)
		}
		if _, ok := l.FindCharacter(entry.Character); !ok {
			return nil, dnderr.NotFoundf("group %q references unknown character %q", group.Name, entry.Character)
		}
	}

	var out []combat.Combatant
	for _, entry := range group.Entries {
		count := entry.Count
		if count == 0 {
			count = 1
		}
		added, err := l.InstantiateCharacter(entry.Character, count, naming, nextID)
		if err != nil {
			return nil, err
		}
		out = append(out, added...)
	}
	return out, nil
}

func instantiate(c Character, name string, nextID *int) combat.Combatant {
	combatant := combat.NewCombatant(*nextID, name, 0, c.DexMod, c.IsPC)
	*nextID++
	combatant.HitPoints = c.DefaultHP
	combatant.ArmorClass = c.DefaultAC
	combatant.Notes = c.DefaultNotes
	return combatant
}

func (l *Library) characterIndex(name string) int {
	fold := cases.Fold()
	key := fold.String(name)
	return slices.IndexFunc(l.characters, func(c Character) bool {
		return fold.String(c.Name) == key
	})
}
