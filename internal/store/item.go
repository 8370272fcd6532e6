package store

import (
	"context"

	"github.com/phrazzld/gallery-api/internal/domain"
)

// ItemStore defines the interface for gallery item persistence.
//
// Mutating operations addressed by id treat an unknown id as a silent no-op:
// they return nil and change nothing. Only GetByID reports a miss.
type ItemStore interface {
	// Insert saves the item, replacing every field of an existing record
	// with the same ID (last write wins). New items sort as newest.
	// Returns ErrInvalidEntity wrapping the validation error if the item is invalid.
	Insert(ctx context.Context, item *domain.GalleryItem) error

	// UpdateCaption sets the caption of the item and leaves all other fields untouched.
	UpdateCaption(ctx context.Context, id, caption string) error

	// SoftDelete stamps DeletedAt with the current time, moving the item to
	// the recycle bin. Calling it again refreshes the timestamp.
	SoftDelete(ctx context.Context, id string) error

	// Restore clears DeletedAt unconditionally.
	Restore(ctx context.Context, id string) error

	// PermanentDelete removes the record whether it is active or deleted.
	PermanentDelete(ctx context.Context, id string) error

	// ListActive returns the user's items without DeletedAt, newest CreatedAt first.
	// Returns an empty slice if the user has none.
	ListActive(ctx context.Context, userID string) ([]*domain.GalleryItem, error)

	// ListDeleted returns the user's items with DeletedAt set, newest DeletedAt first.
	// Returns an empty slice if the user has none.
	ListDeleted(ctx context.Context, userID string) ([]*domain.GalleryItem, error)

	// GetByID returns the item regardless of its deleted state.
	// Returns ErrItemNotFound if no item has the ID.
	GetByID(ctx context.Context, id string) (*domain.GalleryItem, error)

	// Close releases the persistence resource held by the store.
	Close() error
}
