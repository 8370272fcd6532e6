package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/phrazzld/gallery-api/internal/domain"
	"github.com/phrazzld/gallery-api/internal/platform/kv"
	"github.com/phrazzld/gallery-api/internal/platform/logger"
	"github.com/phrazzld/gallery-api/internal/store"
)

const (
	// IndexKey holds the id to userID map.
	IndexKey = "gallery_index"

	listKeyPrefix = "gallery_items_"
)

// ListKey returns the key holding userID's item list.
func ListKey(userID string) string {
	return listKeyPrefix + userID
}

// DocumentItemStore implements the store.ItemStore interface over a kv.Store.
type DocumentItemStore struct {
	kv     kv.Store
	logger *slog.Logger
	now    func() time.Time

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// Option configures a DocumentItemStore.
type Option func(*DocumentItemStore)

// WithClock sets the time source used to stamp soft deletes.
func WithClock(now func() time.Time) Option {
	return func(s *DocumentItemStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewDocumentItemStore creates a document-list ItemStore on top of kvs.
// The store takes ownership of kvs and Close closes it.
// If logger is nil, a default logger will be used.
func NewDocumentItemStore(kvs kv.Store, logger *slog.Logger, opts ...Option) *DocumentItemStore {
	if kvs == nil {
		panic("kv store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &DocumentItemStore{
		kv:     kvs,
		logger: logger.With(slog.String("component", "item_store"), slog.String("backend", "document")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ensure DocumentItemStore implements store.ItemStore interface
var _ store.ItemStore = (*DocumentItemStore)(nil)

// Insert implements store.ItemStore.Insert. An existing entry with the same ID
// is replaced where it stands; a new one is placed at the head of the list.
func (s *DocumentItemStore) Insert(ctx context.Context, item *domain.GalleryItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("gallery item validation failed during insert",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndex(ctx)
	if err != nil {
		return err
	}

	// An ID re-inserted for another user leaves the previous owner's list.
	if prev, ok := index[item.ID]; ok && prev != item.UserID {
		items, err := s.readList(ctx, prev)
		if err != nil {
			return err
		}
		items = slices.DeleteFunc(items, func(i *domain.GalleryItem) bool { return i.ID == item.ID })
		if err := s.writeList(ctx, prev, items); err != nil {
			return err
		}
		log.Debug("gallery item moved to a new owner",
			slog.String("item_id", item.ID),
			slog.String("previous_user_id", prev),
			slog.String("user_id", item.UserID))
	}

	items, err := s.readList(ctx, item.UserID)
	if err != nil {
		return err
	}

	stored := item.Clone()
	if pos := position(items, item.ID); pos >= 0 {
		items[pos] = stored
	} else {
		items = slices.Insert(items, 0, stored)
	}

	if err := s.writeList(ctx, item.UserID, items); err != nil {
		return err
	}

	index[item.ID] = item.UserID
	if err := s.writeIndex(ctx, index); err != nil {
		return err
	}

	log.Info("gallery item stored",
		slog.String("item_id", item.ID),
		slog.String("user_id", item.UserID))
	return nil
}

// UpdateCaption implements store.ItemStore.UpdateCaption.
func (s *DocumentItemStore) UpdateCaption(ctx context.Context, id, caption string) error {
	return s.mutate(ctx, "update caption", id, func(i *domain.GalleryItem) {
		i.Caption = caption
	})
}

// SoftDelete implements store.ItemStore.SoftDelete.
func (s *DocumentItemStore) SoftDelete(ctx context.Context, id string) error {
	return s.mutate(ctx, "soft delete", id, func(i *domain.GalleryItem) {
		at := domain.Millis(s.now())
		i.DeletedAt = &at
	})
}

// Restore implements store.ItemStore.Restore.
func (s *DocumentItemStore) Restore(ctx context.Context, id string) error {
	return s.mutate(ctx, "restore", id, func(i *domain.GalleryItem) {
		i.DeletedAt = nil
	})
}

// mutate applies fn to the stored entry for id and rewrites the owner's list.
// An id missing from the index or from the owner's list is a no-op.
func (s *DocumentItemStore) mutate(ctx context.Context, op, id string, fn func(*domain.GalleryItem)) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok, err := s.owner(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		log.Debug("gallery item not indexed, nothing to do",
			slog.String("operation", op),
			slog.String("item_id", id))
		return nil
	}

	items, err := s.readList(ctx, userID)
	if err != nil {
		return err
	}

	pos := position(items, id)
	if pos < 0 {
		log.Warn("indexed gallery item missing from its list",
			slog.String("operation", op),
			slog.String("item_id", id),
			slog.String("user_id", userID))
		return nil
	}

	fn(items[pos])
	if err := s.writeList(ctx, userID, items); err != nil {
		return err
	}

	log.Debug("gallery item updated",
		slog.String("operation", op),
		slog.String("item_id", id))
	return nil
}

// PermanentDelete implements store.ItemStore.PermanentDelete.
func (s *DocumentItemStore) PermanentDelete(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndex(ctx)
	if err != nil {
		return err
	}
	userID, ok := index[id]
	if !ok {
		log.Debug("gallery item not indexed, nothing to do",
			slog.String("operation", "permanent delete"),
			slog.String("item_id", id))
		return nil
	}

	items, err := s.readList(ctx, userID)
	if err != nil {
		return err
	}
	items = slices.DeleteFunc(items, func(i *domain.GalleryItem) bool { return i.ID == id })
	if err := s.writeList(ctx, userID, items); err != nil {
		return err
	}

	delete(index, id)
	if err := s.writeIndex(ctx, index); err != nil {
		return err
	}

	log.Info("gallery item permanently deleted",
		slog.String("item_id", id),
		slog.String("user_id", userID))
	return nil
}

// ListActive implements store.ItemStore.ListActive.
func (s *DocumentItemStore) ListActive(ctx context.Context, userID string) ([]*domain.GalleryItem, error) {
	return s.list(ctx, "active", userID, func(i *domain.GalleryItem) bool { return !i.IsDeleted() }, store.SortActive)
}

// ListDeleted implements store.ItemStore.ListDeleted.
func (s *DocumentItemStore) ListDeleted(ctx context.Context, userID string) ([]*domain.GalleryItem, error) {
	return s.list(ctx, "deleted", userID, (*domain.GalleryItem).IsDeleted, store.SortDeleted)
}

func (s *DocumentItemStore) list(
	ctx context.Context,
	kind, userID string,
	keep func(*domain.GalleryItem) bool,
	sortFn func([]*domain.GalleryItem),
) ([]*domain.GalleryItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	items, err := s.readList(ctx, userID)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s gallery items: %w", kind, err)
	}

	out := []*domain.GalleryItem{}
	for _, i := range items {
		if keep(i) {
			out = append(out, i)
		}
	}
	sortFn(out)

	log.Debug("listed gallery items",
		slog.String("list", kind),
		slog.String("user_id", userID),
		slog.Int("count", len(out)))
	return out, nil
}

// GetByID implements store.ItemStore.GetByID.
func (s *DocumentItemStore) GetByID(ctx context.Context, id string) (*domain.GalleryItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok, err := s.owner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get gallery item: %w", err)
	}
	if !ok {
		log.Debug("gallery item not found", slog.String("item_id", id))
		return nil, store.ErrItemNotFound
	}

	items, err := s.readList(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get gallery item: %w", err)
	}
	if pos := position(items, id); pos >= 0 {
		return items[pos], nil
	}

	log.Warn("indexed gallery item missing from its list",
		slog.String("item_id", id),
		slog.String("user_id", userID))
	return nil, store.ErrItemNotFound
}

// Close closes the underlying key-value store.
func (s *DocumentItemStore) Close() error {
	return s.kv.Close()
}

func (s *DocumentItemStore) owner(ctx context.Context, id string) (string, bool, error) {
	index, err := s.readIndex(ctx)
	if err != nil {
		return "", false, err
	}
	userID, ok := index[id]
	return userID, ok, nil
}

// readList returns freshly decoded items, so callers may modify them.
func (s *DocumentItemStore) readList(ctx context.Context, userID string) ([]*domain.GalleryItem, error) {
	var items []*domain.GalleryItem
	key := ListKey(userID)
	if err := s.read(ctx, "gallery_items", key, &items); err != nil {
		return nil, err
	}
	if i := slices.Index(items, nil); i >= 0 {
		err := fmt.Errorf("null entry at position %d", i)
		s.logError(ctx, "failed to decode document", "gallery_items", key, err)
		return nil, store.NewStoreError("gallery_items", "decode", "malformed document under "+key, err)
	}
	return items, nil
}

func (s *DocumentItemStore) writeList(ctx context.Context, userID string, items []*domain.GalleryItem) error {
	if items == nil {
		items = []*domain.GalleryItem{}
	}
	return s.write(ctx, "gallery_items", ListKey(userID), items)
}

func (s *DocumentItemStore) readIndex(ctx context.Context) (map[string]string, error) {
	index := map[string]string{}
	if err := s.read(ctx, "gallery_index", IndexKey, &index); err != nil {
		return nil, err
	}
	if index == nil {
		index = map[string]string{}
	}
	return index, nil
}

func (s *DocumentItemStore) writeIndex(ctx context.Context, index map[string]string) error {
	return s.write(ctx, "gallery_index", IndexKey, index)
}

// read decodes the document under key into dst. A missing key leaves dst untouched.
func (s *DocumentItemStore) read(ctx context.Context, entity, key string, dst any) error {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logError(ctx, "failed to read document", entity, key, err)
		return store.NewStoreError(entity, "read", "failed to read "+key, err)
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logError(ctx, "failed to decode document", entity, key, err)
		return store.NewStoreError(entity, "decode", "malformed document under "+key, err)
	}
	return nil
}

func (s *DocumentItemStore) write(ctx context.Context, entity, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return store.NewStoreError(entity, "encode", "failed to encode "+key, err)
	}

	if err := s.kv.Set(ctx, key, string(raw)); err != nil {
		s.logError(ctx, "failed to write document", entity, key, err)
		return store.NewStoreError(entity, "write", "failed to write "+key, err)
	}
	return nil
}

func (s *DocumentItemStore) logError(ctx context.Context, msg, entity, key string, err error) {
	logger.FromContextOrDefault(ctx, s.logger).Error(msg,
		slog.String("entity", entity),
		slog.String("key", key),
		slog.String("error", err.Error()))
}

func position(items []*domain.GalleryItem, id string) int {
	return slices.IndexFunc(items, func(i *domain.GalleryItem) bool { return i.ID == id })
}
