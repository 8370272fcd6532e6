package blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrUnsupportedSource is returned when a source URI cannot be opened locally.
	ErrUnsupportedSource = errors.New("blob: unsupported source URI")

	// ErrInvalidName is returned when a user or item ID cannot form an object name.
	ErrInvalidName = errors.New("blob: invalid object name")
)

// Relocator copies a source image to durable storage.
type Relocator interface {
	// Persist copies the image at sourceURI to durable storage for the
	// given user and item, and returns the durable URI.
	Persist(ctx context.Context, userID, id, sourceURI string) (string, error)
}

// Remover deletes the durable copy of an item's image.
type Remover interface {
	// Remove deletes the stored image for the user's item. A missing image is not an error.
	Remove(ctx context.Context, userID, id string) error
}

// ObjectName returns the storage-relative name for an item's image.
func ObjectName(userID, id string) (string, error) {
	for _, part := range []string{userID, id} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, part)
		}
	}
	return userID + "/" + id + ".jpg", nil
}

// sourcePath resolves a file:// URI or a plain filesystem path.
func sourcePath(sourceURI string) (string, error) {
	if sourceURI == "" {
		return "", fmt.Errorf("%w: empty", ErrUnsupportedSource)
	}

	u, err := url.Parse(sourceURI)
	if err != nil || u.Scheme == "" {
		return sourceURI, nil
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
	}
	if u.Path == "" {
		return "", fmt.Errorf("%w: %q has no path", ErrUnsupportedSource, sourceURI)
	}
	return u.Path, nil
}
