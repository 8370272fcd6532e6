package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in GalleryServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrNotOwned indicates an item is owned by a different user than the one making the request.
	// The API layer maps this to 404 so item existence is not disclosed.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrItemNotFound indicates that the requested item does not exist.
	ErrItemNotFound = errors.New("gallery item not found")

	// ErrEmptySource indicates AddPhoto was called without a source URI.
	ErrEmptySource = errors.New("source URI cannot be empty")
)

// GalleryServiceError wraps errors from the gallery service with context.
type GalleryServiceError struct {
	// Operation is the operation that failed (e.g., "add_photo", "edit_caption")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for GalleryServiceError.
func (e *GalleryServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gallery service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("gallery service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *GalleryServiceError) Unwrap() error {
	return e.Err
}

// NewGalleryServiceError creates a new GalleryServiceError.
// It returns service sentinel errors directly without wrapping.
func NewGalleryServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{ErrNotOwned, ErrItemNotFound, ErrEmptySource} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}

	return &GalleryServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
