package cli

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Autosave exports the encounter to SavePath every interval until ctx is
// done. A zero interval returns immediately. Failed saves are reported and
// retried on the next tick.
func (h *Handler) Autosave(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			path := h.SavePath()
			if err := h.service.ExportFile(ctx, h.encounterID, path); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				h.logger.Warn("autosave failed",
					zap.String("encounter_id", h.encounterID),
					zap.String("path", path),
					zap.Error(err))
				h.printf("Autosave to %s failed: %v\n", path, err)
				continue
			}
			h.logger.Debug("autosaved encounter",
				zap.String("encounter_id", h.encounterID),
				zap.String("path", path))
		}
	}
}
