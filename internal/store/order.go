package store

import (
	"cmp"
	"slices"

	"github.com/phrazzld/gallery-api/internal/domain"
)

// SortActive orders items newest CreatedAt first, breaking ties by ID.
// Backends that cannot sort in a query use it to match the SQL ordering.
func SortActive(items []*domain.GalleryItem) {
	slices.SortStableFunc(items, func(a, b *domain.GalleryItem) int {
		if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortDeleted orders items newest DeletedAt first, breaking ties by ID.
// Items without DeletedAt sort last.
func SortDeleted(items []*domain.GalleryItem) {
	slices.SortStableFunc(items, func(a, b *domain.GalleryItem) int {
		if c := cmp.Compare(deletedAt(b), deletedAt(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func deletedAt(i *domain.GalleryItem) int64 {
	if i.DeletedAt == nil {
		return 0
	}
	return *i.DeletedAt
}
