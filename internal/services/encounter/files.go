package encounter

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	"github.com/KirkDiggler/initiative-tracker/internal/encounterdoc"
	"go.uber.org/zap"
)

// ExportFile writes the encounter's turn order to an encounter document
func (s *service) ExportFile(ctx context.Context, encounterID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encounter, err := s.load(ctx, encounterID)
	if err != nil {
		return err
	}

	if err := encounterdoc.SaveFile(path, encounter.State); err != nil {
		return err
	}

	s.logger.Debug("exported encounter",
		zap.String("encounter_id", encounterID),
		zap.String("path", path))
	return nil
}

// ImportFile replaces the encounter's turn order with an encounter document.
// The file is decoded and validated before the encounter is touched.
func (s *service) ImportFile(ctx context.Context, encounterID, path string) error {
	snap, err := encounterdoc.LoadFile(path)
	if err != nil {
		return err
	}

	_, err = s.mutate(ctx, encounterID, "load "+filepath.Base(path), func(enc *combat.Encounter, t *combat.Tracker, ch *change) error {
		if err := t.Restore(snap); err != nil {
			return err
		}
		ch.logf(fmt.Sprintf("Loaded %d combatants from %s", t.Len(), filepath.Base(path)))
		return nil
	})
	return err
}
