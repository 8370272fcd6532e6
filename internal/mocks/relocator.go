package mocks

import (
	"context"

	"github.com/phrazzld/gallery-api/internal/blob"
)

// MockRelocator implements blob.Relocator for testing.
// Without PersistFn it returns URIPrefix + "<userID>/<id>.jpg", or Err when set.
type MockRelocator struct {
	PersistFn func(ctx context.Context, userID, id, sourceURI string) (string, error)

	URIPrefix string
	Err       error
}

var _ blob.Relocator = (*MockRelocator)(nil)

// Persist implements blob.Relocator.
func (m *MockRelocator) Persist(ctx context.Context, userID, id, sourceURI string) (string, error) {
	if m.PersistFn != nil {
		return m.PersistFn(ctx, userID, id, sourceURI)
	}
	if m.Err != nil {
		return "", m.Err
	}
	prefix := m.URIPrefix
	if prefix == "" {
		prefix = "file:///durable/"
	}
	return prefix + userID + "/" + id + ".jpg", nil
}
