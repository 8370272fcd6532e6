package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/phrazzld/gallery-api/internal/blob"
	"github.com/phrazzld/gallery-api/internal/domain"
	"github.com/phrazzld/gallery-api/internal/events"
	"github.com/phrazzld/gallery-api/internal/platform/logger"
	"github.com/phrazzld/gallery-api/internal/store"
)

// DefaultShareTitle is the share dialog title for items without a caption.
const DefaultShareTitle = "Share Image"

// ErrInvalidSource indicates the picked image could not be read for relocation.
var ErrInvalidSource = errors.New("source image cannot be read")

// ShareRequest is what a client hands to the platform share facility.
type ShareRequest struct {
	URI     string `json:"uri"`
	Caption string `json:"caption"`
	Title   string `json:"title"`
}

// GalleryService provides the gallery and recycle bin use cases for one user at a time.
//
// Mutations addressed by item ID keep the store's semantics for unknown IDs:
// they succeed and change nothing. An ID that belongs to another user yields ErrNotOwned.
type GalleryService interface {
	// AddPhoto copies the picked image to durable storage and stores a new,
	// caption-less item pointing at the copy.
	AddPhoto(ctx context.Context, userID, sourceURI string) (*domain.GalleryItem, error)

	// GetItem returns one of the user's items, deleted or not.
	GetItem(ctx context.Context, userID, id string) (*domain.GalleryItem, error)

	// EditCaption replaces the caption of the item.
	EditCaption(ctx context.Context, userID, id, caption string) error

	// MoveToRecycleBin soft-deletes the item.
	MoveToRecycleBin(ctx context.Context, userID, id string) error

	// Restore takes the item out of the recycle bin.
	Restore(ctx context.Context, userID, id string) error

	// DeleteForever permanently removes the item.
	DeleteForever(ctx context.Context, userID, id string) error

	// EmptyRecycleBin permanently removes every item in the user's recycle bin
	// and returns how many were removed.
	EmptyRecycleBin(ctx context.Context, userID string) (int, error)

	// ListGallery returns the user's active items, newest first, keeping those
	// whose caption contains query ignoring case. A blank query keeps all.
	ListGallery(ctx context.Context, userID, query string) ([]*domain.GalleryItem, error)

	// ListRecycleBin returns the user's deleted items, most recently deleted first.
	ListRecycleBin(ctx context.Context, userID string) ([]*domain.GalleryItem, error)

	// ShareTarget returns the share payload for the item.
	ShareTarget(ctx context.Context, userID, id string) (*ShareRequest, error)
}

// Option configures the gallery service.
type Option func(*galleryServiceImpl)

// WithClock sets the time source used to stamp and identify new items.
func WithClock(now func() time.Time) Option {
	return func(s *galleryServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// galleryServiceImpl implements the GalleryService interface
type galleryServiceImpl struct {
	items     store.ItemStore
	relocator blob.Relocator
	emitter   events.EventEmitter
	logger    *slog.Logger
	now       func() time.Time
}

// NewGalleryService creates a new GalleryService.
// It returns an error if the store or relocator is nil. A nil emitter
// discards events.
func NewGalleryService(
	items store.ItemStore,
	relocator blob.Relocator,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) (GalleryService, error) {
	if items == nil {
		return nil, &GalleryServiceError{Operation: "create_service", Message: "item store cannot be nil"}
	}
	if relocator == nil {
		return nil, &GalleryServiceError{Operation: "create_service", Message: "relocator cannot be nil"}
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &galleryServiceImpl{
		items:     items,
		relocator: relocator,
		emitter:   emitter,
		logger:    logger.With(slog.String("component", "gallery_service")),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AddPhoto implements GalleryService.AddPhoto.
func (s *galleryServiceImpl) AddPhoto(ctx context.Context, userID, sourceURI string) (*domain.GalleryItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if strings.TrimSpace(sourceURI) == "" {
		return nil, ErrEmptySource
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrEmptyItemUserID)
	}

	pickedAt := s.now()
	id := domain.ContentID(sourceURI, pickedAt)

	uri, err := s.relocator.Persist(ctx, userID, id, sourceURI)
	if err != nil {
		log.Error("failed to relocate picked image",
			slog.String("error", err.Error()),
			slog.String("user_id", userID),
			slog.String("source_uri", sourceURI))
		if errors.Is(err, blob.ErrUnsupportedSource) || errors.Is(err, os.ErrNotExist) {
			return nil, ErrInvalidSource
		}
		return nil, NewGalleryServiceError("add_photo", "failed to relocate image", err)
	}

	item, err := domain.NewGalleryItem(id, userID, uri, pickedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	if err := s.items.Insert(ctx, item); err != nil {
		log.Error("failed to store gallery item",
			slog.String("error", err.Error()),
			slog.String("item_id", id),
			slog.String("user_id", userID))
		s.discardRelocated(ctx, userID, id)
		return nil, NewGalleryServiceError("add_photo", "failed to store item", err)
	}

	log.Info("photo added to gallery",
		slog.String("item_id", id),
		slog.String("user_id", userID))
	s.emit(ctx, events.ItemAdded, item)
	return item, nil
}

// discardRelocated removes an image copy that no stored item refers to.
func (s *galleryServiceImpl) discardRelocated(ctx context.Context, userID, id string) {
	remover, ok := s.relocator.(blob.Remover)
	if !ok {
		return
	}
	if err := remover.Remove(ctx, userID, id); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to remove orphaned image",
			slog.String("error", err.Error()),
			slog.String("item_id", id),
			slog.String("user_id", userID))
	}
}

// GetItem implements GalleryService.GetItem.
func (s *galleryServiceImpl) GetItem(ctx context.Context, userID, id string) (*domain.GalleryItem, error) {
	item, err := s.owned(ctx, "get_item", userID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// EditCaption implements GalleryService.EditCaption.
func (s *galleryServiceImpl) EditCaption(ctx context.Context, userID, id, caption string) error {
	_, err := s.mutate(ctx, "edit_caption", userID, id, func(ctx context.Context) error {
		return s.items.UpdateCaption(ctx, id, caption)
	})
	return err
}

// MoveToRecycleBin implements GalleryService.MoveToRecycleBin.
func (s *galleryServiceImpl) MoveToRecycleBin(ctx context.Context, userID, id string) error {
	item, err := s.mutate(ctx, "move_to_recycle_bin", userID, id, func(ctx context.Context) error {
		return s.items.SoftDelete(ctx, id)
	})
	if item != nil {
		s.emit(ctx, events.ItemTrashed, item)
	}
	return err
}

// Restore implements GalleryService.Restore.
func (s *galleryServiceImpl) Restore(ctx context.Context, userID, id string) error {
	item, err := s.mutate(ctx, "restore", userID, id, func(ctx context.Context) error {
		return s.items.Restore(ctx, id)
	})
	// Restoring an active item changes nothing.
	if item != nil && item.DeletedAt != nil {
		s.emit(ctx, events.ItemRestored, item)
	}
	return err
}

// DeleteForever implements GalleryService.DeleteForever.
func (s *galleryServiceImpl) DeleteForever(ctx context.Context, userID, id string) error {
	item, err := s.mutate(ctx, "delete_forever", userID, id, func(ctx context.Context) error {
		return s.items.PermanentDelete(ctx, id)
	})
	if item != nil {
		s.emit(ctx, events.ItemPurged, item)
	}
	return err
}

// EmptyRecycleBin implements GalleryService.EmptyRecycleBin.
// On failure it returns the number of items removed before the error.
func (s *galleryServiceImpl) EmptyRecycleBin(ctx context.Context, userID string) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deleted, err := s.items.ListDeleted(ctx, userID)
	if err != nil {
		return 0, NewGalleryServiceError("empty_recycle_bin", "failed to list recycle bin", err)
	}

	removed := 0
	for _, item := range deleted {
		if err := s.items.PermanentDelete(ctx, item.ID); err != nil {
			log.Error("failed to purge item from recycle bin",
				slog.String("error", err.Error()),
				slog.String("item_id", item.ID),
				slog.String("user_id", userID),
				slog.Int("removed", removed))
			return removed, NewGalleryServiceError("empty_recycle_bin", "failed to delete item", err)
		}
		removed++
		s.emit(ctx, events.ItemPurged, item)
	}

	log.Info("recycle bin emptied",
		slog.String("user_id", userID),
		slog.Int("removed", removed))
	return removed, nil
}

// ListGallery implements GalleryService.ListGallery.
func (s *galleryServiceImpl) ListGallery(ctx context.Context, userID, query string) ([]*domain.GalleryItem, error) {
	items, err := s.items.ListActive(ctx, userID)
	if err != nil {
		return nil, NewGalleryServiceError("list_gallery", "failed to list items", err)
	}
	return FilterByCaption(items, query), nil
}

// ListRecycleBin implements GalleryService.ListRecycleBin.
func (s *galleryServiceImpl) ListRecycleBin(ctx context.Context, userID string) ([]*domain.GalleryItem, error) {
	items, err := s.items.ListDeleted(ctx, userID)
	if err != nil {
		return nil, NewGalleryServiceError("list_recycle_bin", "failed to list items", err)
	}
	return items, nil
}

// ShareTarget implements GalleryService.ShareTarget.
func (s *galleryServiceImpl) ShareTarget(ctx context.Context, userID, id string) (*ShareRequest, error) {
	item, err := s.GetItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return NewShareRequest(item), nil
}

// NewShareRequest builds the share payload for item. The title falls back to
// DefaultShareTitle when the caption is empty.
func NewShareRequest(item *domain.GalleryItem) *ShareRequest {
	title := item.Caption
	if title == "" {
		title = DefaultShareTitle
	}
	return &ShareRequest{URI: item.URI, Caption: item.Caption, Title: title}
}

// FilterByCaption keeps the items whose caption contains the trimmed query,
// ignoring case. Order is preserved and a blank query keeps every item.
func FilterByCaption(items []*domain.GalleryItem, query string) []*domain.GalleryItem {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return items
	}

	out := []*domain.GalleryItem{}
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Caption), needle) {
			out = append(out, item)
		}
	}
	return out
}

// owned loads the item and checks it belongs to userID. A missing item
// yields a nil item and no error.
func (s *galleryServiceImpl) owned(ctx context.Context, op, userID, id string) (*domain.GalleryItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, nil
		}
		log.Error("failed to load gallery item",
			slog.String("operation", op),
			slog.String("error", err.Error()),
			slog.String("item_id", id))
		return nil, NewGalleryServiceError(op, "failed to load item", err)
	}

	if item.UserID != userID {
		log.Warn("item belongs to another user",
			slog.String("operation", op),
			slog.String("item_id", id),
			slog.String("user_id", userID))
		return nil, ErrNotOwned
	}
	return item, nil
}

// mutate runs fn after the ownership check. It returns the item as it was
// before the change, or nil when the ID is unknown and nothing was done.
func (s *galleryServiceImpl) mutate(
	ctx context.Context,
	op, userID, id string,
	fn func(ctx context.Context) error,
) (*domain.GalleryItem, error) {
	item, err := s.owned(ctx, op, userID, id)
	if err != nil || item == nil {
		return nil, err
	}

	if err := fn(ctx); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("gallery mutation failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
			slog.String("item_id", id))
		return nil, NewGalleryServiceError(op, "failed to update item", err)
	}
	return item, nil
}

// emit publishes the event. Handler failures do not undo the change and are only logged.
func (s *galleryServiceImpl) emit(ctx context.Context, typ events.ItemEventType, item *domain.GalleryItem) {
	event := events.NewItemEvent(typ, item.ID, item.UserID, item.URI)
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("event handler failed",
			slog.String("event_type", string(typ)),
			slog.String("item_id", item.ID),
			slog.String("error", err.Error()))
	}
}
