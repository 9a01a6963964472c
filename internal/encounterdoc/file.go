package encounterdoc

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
)

// SaveFile writes the snapshot to path. The document is written to a
// temporary file in the same directory and renamed over path, so a failed
// save never leaves a truncated encounter behind.
func SaveFile(path string, s combat.Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to create encounter directory").
			WithMeta("path", path)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to create temporary encounter file").
			WithMeta("path", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to write encounter file").
			WithMeta("path", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to write encounter file").
			WithMeta("path", path)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to replace encounter file").
			WithMeta("path", path)
	}

	return nil
}

// LoadFile reads and validates the document at path
func LoadFile(path string) (combat.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return combat.Snapshot{}, dnderr.NotFoundf("encounter file %s not found", path).WithMeta("path", path)
		}
		return combat.Snapshot{}, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to read encounter file").
			WithMeta("path", path)
	}

	s, err := Decode(data)
	if err != nil {
		return combat.Snapshot{}, dnderr.Wrapf(err, "failed to load %s", path)
	}
	return s, nil
}
