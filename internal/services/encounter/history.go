package encounter

import (
	"context"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"go.uber.org/zap"
)

// historyEntry is one undoable change: the turn order before and after it
type historyEntry struct {
	label  string
	before combat.Snapshot
	after  combat.Snapshot
}

type history struct {
	undo []historyEntry
	redo []historyEntry
}

// push records a new change. Any redo entries are discarded and the oldest
// undo entries are dropped once limit is exceeded.
func (h *history) push(entry historyEntry, limit int) {
	if limit <= 0 {
		return
	}

	h.undo = append(h.undo, entry)
	if len(h.undo) > limit {
		h.undo = h.undo[len(h.undo)-limit:]
	}
	h.redo = nil
}

func (s *service) historyFor(encounterID string) *history {
	h, ok := s.histories[encounterID]
	if !ok {
		h = &history{}
		s.histories[encounterID] = h
	}
	return h
}

// Undo reverts the most recent change and returns its label
func (s *service) Undo(ctx context.Context, encounterID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.historyFor(encounterID)
	if len(h.undo) == 0 {
		return "", dnderr.InvalidArgument("nothing to undo").WithMeta("encounter_id", encounterID)
	}
	entry := h.undo[len(h.undo)-1]

	if err := s.restore(ctx, encounterID, entry.before, "Undid "+entry.label); err != nil {
		return "", err
	}

	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, entry)

	s.logger.Debug("undid change",
		zap.String("encounter_id", encounterID),
		zap.String("change", entry.label))
	return entry.label, nil
}

// Redo reapplies the most recently undone change and returns its label
func (s *service) Redo(ctx context.Context, encounterID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.historyFor(encounterID)
	if len(h.redo) == 0 {
		return "", dnderr.InvalidArgument("nothing to redo").WithMeta("encounter_id", encounterID)
	}
	entry := h.redo[len(h.redo)-1]

	if err := s.restore(ctx, encounterID, entry.after, "Redid "+entry.label); err != nil {
		return "", err
	}

	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, entry)

	s.logger.Debug("redid change",
		zap.String("encounter_id", encounterID),
		zap.String("change", entry.label))
	return entry.label, nil
}

// restore puts a recorded snapshot back on the stored encounter. Callers hold s.mu.
func (s *service) restore(ctx context.Context, encounterID string, snap combat.Snapshot, logEntry string) error {
	encounter, err := s.load(ctx, encounterID)
	if err != nil {
		return err
	}

	tracker := combat.NewTracker(&combat.TrackerConfig{SkipUnconscious: encounter.SkipUnconscious})
	if err := tracker.Restore(snap); err != nil {
		return dnderr.Wrap(err, "failed to restore recorded turn order")
	}

	encounter.Capture(tracker, s.clock.Now())
	encounter.AddCombatLogEntry(logEntry)

	if err := s.repository.Update(ctx, encounter); err != nil {
		return dnderr.Wrapf(err, "failed to save encounter '%s'", encounterID)
	}
	return nil
}
