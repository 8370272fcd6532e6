package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Validation errors for GalleryItem. All of them wrap ErrValidation.
var (
	ErrEmptyItemID        = fmt.Errorf("%w: gallery item ID cannot be empty", ErrValidation)
	ErrEmptyItemURI       = fmt.Errorf("%w: gallery item URI cannot be empty", ErrValidation)
	ErrEmptyItemUserID    = fmt.Errorf("%w: gallery item user ID cannot be empty", ErrValidation)
	ErrInvalidItemCreated = fmt.Errorf("%w: gallery item creation time must be positive", ErrValidation)
)

// GalleryItem is a single photo record owned by one user.
//
// Timestamps are epoch milliseconds. DeletedAt is nil while the item is
// active; a non-nil value marks it as soft-deleted (in the recycle bin).
type GalleryItem struct {
	ID        string `json:"id"`
	URI       string `json:"uri"`
	Caption   string `json:"caption"`
	CreatedAt int64  `json:"createdAt"`
	UserID    string `json:"userId"`
	DeletedAt *int64 `json:"deletedAt"`
}

// NewGalleryItem creates an active, caption-less item for userID pointing at
// the durable uri. Returns an error if validation fails.
func NewGalleryItem(id, userID, uri string, createdAt time.Time) (*GalleryItem, error) {
	item := &GalleryItem{
		ID:        id,
		URI:       uri,
		Caption:   "",
		CreatedAt: Millis(createdAt),
		UserID:    userID,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks that the item carries every field a store needs.
func (i *GalleryItem) Validate() error {
	if i.ID == "" {
		return ErrEmptyItemID
	}

	if i.URI == "" {
		return ErrEmptyItemURI
	}

	if i.UserID == "" {
		return ErrEmptyItemUserID
	}

	if i.CreatedAt <= 0 {
		return ErrInvalidItemCreated
	}

	return nil
}

// IsDeleted reports whether the item is in the recycle bin.
func (i *GalleryItem) IsDeleted() bool {
	return i.DeletedAt != nil
}

// Clone returns a deep copy, so callers can hand out items without sharing
// the DeletedAt pointer.
func (i *GalleryItem) Clone() *GalleryItem {
	c := *i
	if i.DeletedAt != nil {
		d := *i.DeletedAt
		c.DeletedAt = &d
	}
	return &c
}

// ContentID derives an item identifier from the picked source URI and the
// pick time: hex(SHA-256(sourceURI + decimal millis)).
func ContentID(sourceURI string, at time.Time) string {
	sum := sha256.Sum256([]byte(sourceURI + strconv.FormatInt(Millis(at), 10)))
	return hex.EncodeToString(sum[:])
}

// RandomID returns a random identifier for items without meaningful content.
func RandomID() string {
	return uuid.NewString()
}
