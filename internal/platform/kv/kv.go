// Package kv provides the key-value persistence resource beneath the
// document-list item store. Three implementations share one interface:
// an in-memory map, a flock-guarded file directory, and Redis.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key holds no value.
	ErrNotFound = errors.New("kv: key not found")

	// ErrLocked is returned when a file store directory is held by another process.
	ErrLocked = errors.New("kv: store is locked by another process")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("kv: store is closed")
)

// Store is a string key-value store.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the resources held by the store.
	Close() error
}
