package blob

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/gallery-api/internal/events"
	"github.com/phrazzld/gallery-api/internal/platform/logger"
)

// PurgeHandler removes an item's stored image once the item is permanently deleted.
type PurgeHandler struct {
	remover Remover
	logger  *slog.Logger
}

// NewPurgeHandler creates a handler that deletes images through remover.
// If logger is nil, a default logger will be used.
func NewPurgeHandler(remover Remover, logger *slog.Logger) *PurgeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PurgeHandler{
		remover: remover,
		logger:  logger.With(slog.String("component", "purge_handler")),
	}
}

var _ events.EventHandler = (*PurgeHandler)(nil)

// HandleEvent implements events.EventHandler. Events other than
// events.ItemPurged are ignored.
func (h *PurgeHandler) HandleEvent(ctx context.Context, event *events.ItemEvent) error {
	if event.Type != events.ItemPurged {
		return nil
	}

	if err := h.remover.Remove(ctx, event.UserID, event.ItemID); err != nil {
		logger.FromContextOrDefault(ctx, h.logger).Warn("stored image left behind",
			slog.String("item_id", event.ItemID),
			slog.String("user_id", event.UserID),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to purge image for item %s: %w", event.ItemID, err)
	}
	return nil
}
