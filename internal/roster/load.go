package roster

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"gopkg.in/yaml.v3"
)

type characterFile struct {
	Schema     *int        `json:"schema,omitempty" yaml:"schema,omitempty"`
	Characters []Character `json:"characters" yaml:"characters"`
}

type groupFile struct {
	Schema *int        `json:"schema,omitempty" yaml:"schema,omitempty"`
	Groups []Group     `json:"groups" yaml:"groups"`
	Naming *namingFile `json:"naming,omitempty" yaml:"naming,omitempty"`
}

// namingFile tells missing options apart from zero values
type namingFile struct {
	Pattern    *string `json:"pattern" yaml:"pattern"`
	StartIndex *int    `json:"startIndex" yaml:"startIndex"`
	ZeroPad    *bool   `json:"zeroPad" yaml:"zeroPad"`
	Width      *int    `json:"width" yaml:"width"`
}

// Base names LoadDir looks for, tried with each supported extension
const (
	CharactersFile = "characters"
	GroupsFile     = "groups"
)

var extensions = []string{".json", ".yaml", ".yml"}

// LoadCharacters replaces the library's characters with the ones in path.
// The format follows the file extension (.json, .yaml or .yml).
func (l *Library) LoadCharacters(path string) error {
	var file characterFile
	if err := decodeFile(path, &file); err != nil {
		return err
	}
	if err := checkSchema(path, file.Schema); err != nil {
		return err
	}
	for i, c := range file.Characters {
		if strings.TrimSpace(c.Name) == "" {
			return dnderr.Validationf("character %d in %s has no name", i, path)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.characters = file.Characters
	return nil
}

// LoadGroups replaces the library's groups, and its naming options when the
// file has them
func (l *Library) LoadGroups(path string) error {
	var file groupFile
	if err := decodeFile(path, &file); err != nil {
		return err
	}
	if err := checkSchema(path, file.Schema); err != nil {
		return err
	}
	for _, g := range file.Groups {
		for _, e := range g.Entries {
			if e.Count < 0 {
				return dnderr.Validationf("group %q in %s has a negative count for %q", g.Name, path, e.Character)
			}
		}
	}

	naming := DefaultNaming()
	if file.Naming != nil {
		naming = mergeNaming(*file.Naming)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.groups = file.Groups
	l.naming = naming
	return nil
}

// SaveCharacters writes the library's characters to path in the format its
// extension names
func (l *Library) SaveCharacters(path string) error {
	schema := SchemaVersion
	file := characterFile{Schema: &schema, Characters: l.Characters()}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(file)
	case ".json":
		data, err = json.MarshalIndent(file, "", "  ")
	default:
		return dnderr.InvalidArgumentf("unsupported roster file type %q", filepath.Ext(path))
	}
	if err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to encode characters")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to create roster directory").WithMeta("path", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to write characters").WithMeta("path", path)
	}
	return nil
}

// LoadDir builds a library from the characters and groups files in dir.
// Either file may be missing.
func LoadDir(dir string) (*Library, error) {
	lib := NewLibrary(nil, nil)

	if path, ok := findFile(dir, CharactersFile); ok {
		if err := lib.LoadCharacters(path); err != nil {
			return nil, err
		}
	}
	if path, ok := findFile(dir, GroupsFile); ok {
		if err := lib.LoadGroups(path); err != nil {
			return nil, err
		}
	}

	return lib, nil
}

// CharactersPath returns the characters file LoadDir reads from dir, or
// dir/characters.yaml when there is none yet
func CharactersPath(dir string) string {
	if path, ok := findFile(dir, CharactersFile); ok {
		return path
	}
	return filepath.Join(dir, CharactersFile+".yaml")
}

func findFile(dir, base string) (string, bool) {
	for _, ext := range extensions {
		path := filepath.Join(dir, base+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func decodeFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dnderr.NotFoundf("roster file %s not found", path)
		}
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to read roster file").WithMeta("path", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, target)
	case ".json":
		err = json.Unmarshal(data, target)
	default:
		return dnderr.InvalidArgumentf("unsupported roster file type %q", filepath.Ext(path))
	}
	if err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeValidation, "malformed roster file").WithMeta("path", path)
	}
	return nil
}

func checkSchema(path string, schema *int) error {
	if schema != nil && *schema != SchemaVersion {
		return dnderr.Validationf("unsupported roster schema %d in %s", *schema, path)
	}
	return nil
}

// mergeNaming fills options a file left out with the defaults
func mergeNaming(f namingFile) Naming {
	n := DefaultNaming()
	if f.Pattern != nil && *f.Pattern != "" {
		n.Pattern = *f.Pattern
	}
	if f.StartIndex != nil {
		n.StartIndex = *f.StartIndex
	}
	if f.ZeroPad != nil {
		n.ZeroPad = *f.ZeroPad
	}
	if f.Width != nil && *f.Width > 0 {
		n.Width = *f.Width
	}
	return n
}
