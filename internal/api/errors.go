package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/hotel-ops-api/internal/api/shared"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/service"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// MapErrorToStatusCode maps service and store errors to HTTP status codes.
// Order matters: a lost compare-and-swap surfaces as ErrInvalidTransition
// wrapping store.ErrConflict and must stay a 409.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, shared.ErrEmptyBody),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, service.ErrPreconditionFailed):
		return http.StatusPreconditionFailed

	case errors.Is(err, service.ErrInvalidRole):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message that never includes
// internal error text.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return SanitizeValidationError(verrs)
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("Invalid %s: %s", verr.Field, verr.Message)
	}

	switch {
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.Is(err, service.ErrValidation), errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"
	case errors.Is(err, service.ErrForbidden):
		return "You are not allowed to perform this action"
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrGuestRequestNotFound):
		return "Guest request not found"
	case errors.Is(err, store.ErrStaffNotFound):
		return "Staff member not found"
	case errors.Is(err, service.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, store.ErrConflict):
		return "Status change rejected; reload the task and retry"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"
	case errors.Is(err, service.ErrPreconditionFailed):
		return "No active check-in found for this guest"
	case errors.Is(err, service.ErrInvalidRole):
		return "Assignee must be an active staff member"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError reports the first failing field of a validator
// error by its JSON name.
func SanitizeValidationError(verrs validator.ValidationErrors) string {
	if len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "must be a UUID"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the response for err. An empty fallback keeps the
// mapped safe message; otherwise fallback replaces the generic 500 text.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
