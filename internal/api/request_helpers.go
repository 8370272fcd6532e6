package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/gallery-api/internal/api/shared"
	"github.com/phrazzld/gallery-api/internal/domain"
	"github.com/phrazzld/gallery-api/internal/platform/logger"
)

// itemIDParam is the chi path parameter holding a gallery item ID.
const itemIDParam = "id"

// getUserIDFromContext extracts the authenticated user's ID from the request context.
// The user ID is expected to be placed in the context by the authentication middleware.
func getUserIDFromContext(r *http.Request) (string, bool) {
	return shared.GetUserID(r.Context())
}

// getPathID extracts a non-empty ID from the URL path parameters.
func getPathID(r *http.Request, paramName string) (string, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return "", domain.ErrInvalidID
	}
	return pathParam, nil
}

// handleUserID extracts the user ID from context and writes a 401 response
// when it is missing.
func handleUserID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, ErrUnauthenticated, "")
		return "", false
	}
	return userID, true
}

// handleUserIDAndPathID is a composite helper that extracts both the user ID
// from context and an item ID from the path parameters. It writes an error
// response if either extraction fails.
func handleUserIDAndPathID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (string, string, bool) {
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}

	userID, ok := handleUserID(w, r, log)
	if !ok {
		return "", "", false
	}

	pathID, err := getPathID(r, paramName)
	if err != nil {
		log.Warn("invalid "+paramName, slog.String("param_name", paramName))
		HandleAPIError(w, r, err, "")
		return "", "", false
	}

	return userID, pathID, true
}
