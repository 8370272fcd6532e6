package api

import (
	"github.com/phrazzld/gallery-api/internal/domain"
	"github.com/phrazzld/gallery-api/internal/service"
)

// AddPhotoRequest defines the payload for adding a picked image to the gallery.
type AddPhotoRequest struct {
	SourceURI string `json:"source_uri" validate:"required"`
}

// UpdateCaptionRequest defines the payload for editing a caption.
// Caption is a pointer so an explicit empty caption can be told apart from a
// missing field.
type UpdateCaptionRequest struct {
	Caption *string `json:"caption" validate:"required"`
}

// ItemResponse is the wire form of a gallery item.
// Timestamps are epoch milliseconds; DeletedAt is null for active items.
type ItemResponse struct {
	ID        string `json:"id"`
	URI       string `json:"uri"`
	Caption   string `json:"caption"`
	CreatedAt int64  `json:"created_at"`
	DeletedAt *int64 `json:"deleted_at"`
}

// ItemListResponse wraps a list of items.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Count int            `json:"count"`
}

// ShareResponse is the payload a client hands to its share facility.
type ShareResponse struct {
	URI     string `json:"uri"`
	Caption string `json:"caption"`
	Title   string `json:"title"`
}

// EmptyRecycleBinResponse reports how many items were permanently removed.
type EmptyRecycleBinResponse struct {
	Removed int `json:"removed"`
}

func itemToResponse(item *domain.GalleryItem) ItemResponse {
	resp := ItemResponse{
		ID:        item.ID,
		URI:       item.URI,
		Caption:   item.Caption,
		CreatedAt: item.CreatedAt,
	}
	if item.DeletedAt != nil {
		deletedAt := *item.DeletedAt
		resp.DeletedAt = &deletedAt
	}
	return resp
}

func itemsToResponse(items []*domain.GalleryItem) ItemListResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, itemToResponse(item))
	}
	return ItemListResponse{Items: out, Count: len(out)}
}

func shareToResponse(share *service.ShareRequest) ShareResponse {
	return ShareResponse{URI: share.URI, Caption: share.Caption, Title: share.Title}
}
