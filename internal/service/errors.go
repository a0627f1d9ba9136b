package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// Service error taxonomy. Callers check these with errors.Is; the API layer
// maps each to an HTTP status.
var (
	// ErrValidation marks malformed input or an unknown enum value.
	// API layer should map this to HTTP 400 Bad Request.
	ErrValidation = domain.ErrValidation

	// ErrNotFound marks a missing task, request, staff member, or stay.
	// API layer should map this to HTTP 404 Not Found.
	ErrNotFound = store.ErrNotFound

	// ErrInvalidRole indicates the assignment target is not staff.
	// API layer should map this to HTTP 422 Unprocessable Entity.
	ErrInvalidRole = errors.New("assignment target does not have the staff role")

	// ErrInvalidTransition indicates the guard rejected a status change or the
	// write lost a compare-and-swap race.
	// API layer should map this to HTTP 409 Conflict.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrPreconditionFailed indicates the guest has no active check-in.
	// API layer should map this to HTTP 412 Precondition Failed.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrSyncFailure marks a failed reverse sync or background assignment.
	// It is logged by the engines and never returned from a primary mutation.
	ErrSyncFailure = errors.New("sync failure")

	// ErrForbidden indicates the actor's role does not permit the operation.
	// API layer should map this to HTTP 403 Forbidden.
	ErrForbidden = errors.New("operation not permitted for this role")
)

// taxonomy lists the errors that pass through NewTaskServiceError unwrapped.
var taxonomy = []error{
	ErrValidation,
	ErrNotFound,
	ErrInvalidRole,
	ErrInvalidTransition,
	ErrPreconditionFailed,
	ErrSyncFailure,
	ErrForbidden,
}

// TaskServiceError wraps unexpected failures with the operation that hit them.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "transition", "assign")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError wraps err for operation. Errors already in the service
// taxonomy are returned unchanged so callers keep their specific reason.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range taxonomy {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// rejectTransition converts a policy rejection or a lost compare-and-swap
// into ErrInvalidTransition while keeping the cause inspectable.
func rejectTransition(err error) error {
	if errors.Is(err, domain.ErrTransitionRejected) || store.IsConflictError(err) {
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	}
	return err
}

// requireStaffActor admits staff, managers, admins, and the system actor.
func requireStaffActor(actor domain.Actor) error {
	switch actor.Role {
	case domain.RoleStaff, domain.RoleManager, domain.RoleAdmin, domain.RoleSystem:
		return nil
	default:
		return fmt.Errorf("%w: role %q", ErrForbidden, actor.Role)
	}
}

// requireGuestActor admits only guests.
func requireGuestActor(actor domain.Actor) error {
	if actor.Role != domain.RoleGuest {
		return fmt.Errorf("%w: role %q", ErrForbidden, actor.Role)
	}
	return nil
}
