package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/gallery-api/internal/api/shared"
	"github.com/phrazzld/gallery-api/internal/domain"
	"github.com/phrazzld/gallery-api/internal/service"
	"github.com/phrazzld/gallery-api/internal/service/auth"
	"github.com/phrazzld/gallery-api/internal/store"
)

// ErrUnauthenticated is returned when a protected handler runs without a user
// in the request context.
var ErrUnauthenticated = errors.New("user not authenticated")

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors

	switch {
	// Authentication errors
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Items owned by someone else are reported as missing
	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, service.ErrEmptySource),
		errors.Is(err, service.ErrInvalidSource),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "User ID not found or invalid"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Item not found"

	case errors.Is(err, service.ErrEmptySource):
		return "Source URI is required"

	case errors.Is(err, service.ErrInvalidSource):
		return "Source image cannot be read"

	case errors.As(err, &validationErrs):
		return SanitizeValidationError(err)

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return "Invalid item data"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid item ID"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}

	errMsg := err.Error()

	// Example format: "Key: 'AddPhotoRequest.SourceURI' Error:Field validation for 'SourceURI' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "uri", "url":
		return "invalid URI"
	default:
		return "validation failed"
	}
}

// HandleAPIError maps err to a status code and writes a sanitized error
// response. The full error is logged, never returned. A non-empty message
// replaces the default for server errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	safeMessage := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && message != "" {
		safeMessage = message
	}

	shared.RespondWithErrorAndLog(w, r, status, safeMessage, err)
}
