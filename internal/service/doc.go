// Package service contains the gallery use cases. It orchestrates the item
// store (defined in internal/store), image relocation (internal/blob) and
// lifecycle events (internal/events) on behalf of one user at a time.
//
// The service depends on the store and relocator interfaces only, never on a
// specific backend, so the same GalleryService runs over the PostgreSQL and
// the document-list stores.
//
// Error handling:
//   - Expected conditions are returned as sentinel errors (ErrNotOwned,
//     ErrItemNotFound, ErrEmptySource, ErrInvalidSource)
//   - Validation failures keep wrapping store.ErrInvalidEntity
//   - Everything else is wrapped in GalleryServiceError
package service
