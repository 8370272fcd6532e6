package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/gallery-api/internal/api/shared"
	"github.com/phrazzld/gallery-api/internal/platform/logger"
	"github.com/phrazzld/gallery-api/internal/service"
)

// GalleryHandler handles gallery and recycle bin HTTP requests
type GalleryHandler struct {
	galleryService service.GalleryService
	logger         *slog.Logger
}

// NewGalleryHandler creates a new GalleryHandler
func NewGalleryHandler(galleryService service.GalleryService, logger *slog.Logger) *GalleryHandler {
	if galleryService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("galleryService cannot be nil for GalleryHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for GalleryHandler")
	}

	return &GalleryHandler{
		galleryService: galleryService,
		logger:         logger.With(slog.String("component", "gallery_handler")),
	}
}

// Routes registers the item endpoints on r. Authentication is applied by the caller.
func (h *GalleryHandler) Routes(r chi.Router) {
	r.Get("/items", h.ListGallery)
	r.Post("/items", h.AddPhoto)
	r.Get("/items/deleted", h.ListRecycleBin)
	r.Delete("/items/deleted", h.EmptyRecycleBin)
	r.Get("/items/{id}", h.GetItem)
	r.Delete("/items/{id}", h.DeleteForever)
	r.Put("/items/{id}/caption", h.EditCaption)
	r.Post("/items/{id}/delete", h.MoveToRecycleBin)
	r.Post("/items/{id}/restore", h.Restore)
	r.Get("/items/{id}/share", h.Share)
}

// ListGallery handles GET /items requests.
// The optional q parameter filters by caption.
func (h *GalleryHandler) ListGallery(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	items, err := h.galleryService.ListGallery(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list gallery")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, itemsToResponse(items))
}

// AddPhoto handles POST /items requests.
func (h *GalleryHandler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	var req AddPhotoRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	item, err := h.galleryService.AddPhoto(r.Context(), userID, req.SourceURI)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add photo")
		return
	}

	log.Debug("photo added",
		slog.String("user_id", userID),
		slog.String("item_id", item.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, itemToResponse(item))
}

// ListRecycleBin handles GET /items/deleted requests.
func (h *GalleryHandler) ListRecycleBin(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	items, err := h.galleryService.ListRecycleBin(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list recycle bin")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, itemsToResponse(items))
}

// EmptyRecycleBin handles DELETE /items/deleted requests.
func (h *GalleryHandler) EmptyRecycleBin(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	removed, err := h.galleryService.EmptyRecycleBin(r.Context(), userID)
	if err != nil {
		log.Warn("recycle bin partially emptied",
			slog.String("user_id", userID),
			slog.Int("removed", removed))
		HandleAPIError(w, r, err, "Failed to empty recycle bin")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, EmptyRecycleBinResponse{Removed: removed})
}

// GetItem handles GET /items/{id} requests.
func (h *GalleryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathID(w, r, itemIDParam, log)
	if !ok {
		return
	}

	item, err := h.galleryService.GetItem(r.Context(), userID, itemID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get item")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, itemToResponse(item))
}

// EditCaption handles PUT /items/{id}/caption requests.
func (h *GalleryHandler) EditCaption(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathID(w, r, itemIDParam, log)
	if !ok {
		return
	}

	var req UpdateCaptionRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	if err := h.galleryService.EditCaption(r.Context(), userID, itemID, *req.Caption); err != nil {
		HandleAPIError(w, r, err, "Failed to edit caption")
		return
	}

	shared.RespondNoContent(w)
}

// MoveToRecycleBin handles POST /items/{id}/delete requests.
func (h *GalleryHandler) MoveToRecycleBin(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Failed to move item to recycle bin", h.galleryService.MoveToRecycleBin)
}

// Restore handles POST /items/{id}/restore requests.
func (h *GalleryHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Failed to restore item", h.galleryService.Restore)
}

// DeleteForever handles DELETE /items/{id} requests.
func (h *GalleryHandler) DeleteForever(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Failed to delete item", h.galleryService.DeleteForever)
}

// Share handles GET /items/{id}/share requests.
func (h *GalleryHandler) Share(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathID(w, r, itemIDParam, log)
	if !ok {
		return
	}

	share, err := h.galleryService.ShareTarget(r.Context(), userID, itemID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to share item")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, shareToResponse(share))
}

// mutation runs an ID-addressed service call that has no response body.
func (h *GalleryHandler) mutation(
	w http.ResponseWriter,
	r *http.Request,
	failure string,
	fn func(ctx context.Context, userID, id string) error,
) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathID(w, r, itemIDParam, log)
	if !ok {
		return
	}

	if err := fn(r.Context(), userID, itemID); err != nil {
		HandleAPIError(w, r, err, failure)
		return
	}

	shared.RespondNoContent(w)
}
