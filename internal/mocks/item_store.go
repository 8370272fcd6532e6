package mocks

import (
	"context"

	"github.com/phrazzld/gallery-api/internal/domain"
	"github.com/phrazzld/gallery-api/internal/store"
)

// MockItemStore implements store.ItemStore for testing failure paths.
// Every method without a function field returns Err; list methods return an
// empty slice alongside it and GetByID returns Item.
type MockItemStore struct {
	InsertFn          func(ctx context.Context, item *domain.GalleryItem) error
	UpdateCaptionFn   func(ctx context.Context, id, caption string) error
	SoftDeleteFn      func(ctx context.Context, id string) error
	RestoreFn         func(ctx context.Context, id string) error
	PermanentDeleteFn func(ctx context.Context, id string) error
	ListActiveFn      func(ctx context.Context, userID string) ([]*domain.GalleryItem, error)
	ListDeletedFn     func(ctx context.Context, userID string) ([]*domain.GalleryItem, error)
	GetByIDFn         func(ctx context.Context, id string) (*domain.GalleryItem, error)

	Item *domain.GalleryItem
	Err  error
}

var _ store.ItemStore = (*MockItemStore)(nil)

// Insert implements store.ItemStore.
func (m *MockItemStore) Insert(ctx context.Context, item *domain.GalleryItem) error {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, item)
	}
	return m.Err
}

// UpdateCaption implements store.ItemStore.
func (m *MockItemStore) UpdateCaption(ctx context.Context, id, caption string) error {
	if m.UpdateCaptionFn != nil {
		return m.UpdateCaptionFn(ctx, id, caption)
	}
	return m.Err
}

// SoftDelete implements store.ItemStore.
func (m *MockItemStore) SoftDelete(ctx context.Context, id string) error {
	if m.SoftDeleteFn != nil {
		return m.SoftDeleteFn(ctx, id)
	}
	return m.Err
}

// Restore implements store.ItemStore.
func (m *MockItemStore) Restore(ctx context.Context, id string) error {
	if m.RestoreFn != nil {
		return m.RestoreFn(ctx, id)
	}
	return m.Err
}

// PermanentDelete implements store.ItemStore.
func (m *MockItemStore) PermanentDelete(ctx context.Context, id string) error {
	if m.PermanentDeleteFn != nil {
		return m.PermanentDeleteFn(ctx, id)
	}
	return m.Err
}

// ListActive implements store.ItemStore.
func (m *MockItemStore) ListActive(ctx context.Context, userID string) ([]*domain.GalleryItem, error) {
	if m.ListActiveFn != nil {
		return m.ListActiveFn(ctx, userID)
	}
	return []*domain.GalleryItem{}, m.Err
}

// ListDeleted implements store.ItemStore.
func (m *MockItemStore) ListDeleted(ctx context.Context, userID string) ([]*domain.GalleryItem, error) {
	if m.ListDeletedFn != nil {
		return m.ListDeletedFn(ctx, userID)
	}
	return []*domain.GalleryItem{}, m.Err
}

// GetByID implements store.ItemStore.
func (m *MockItemStore) GetByID(ctx context.Context, id string) (*domain.GalleryItem, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Item == nil {
		return nil, store.ErrItemNotFound
	}
	return m.Item.Clone(), nil
}

// Close implements store.ItemStore.
func (m *MockItemStore) Close() error {
	return nil
}
