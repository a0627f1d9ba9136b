package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
)

// TaskFilter narrows List results. Nil fields do not filter.
type TaskFilter struct {
	Status          *domain.TaskStatus
	Department      *domain.Department
	AssignedTo      *uuid.UUID
	OriginRequestID *uuid.UUID
	Limit           int
	Offset          int
}

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// Create saves a new task. The task's Version is set to 1.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List returns tasks matching filter, newest first.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// ListByOrigin returns every task spawned from the given guest request.
	ListByOrigin(ctx context.Context, requestID uuid.UUID) ([]*domain.Task, error)

	// ListStaleUnassigned returns active, pending, unassigned tasks requested
	// at or before cutoff, oldest first, at most limit of them.
	ListStaleUnassigned(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Task, error)

	// CountActiveByAssignee counts assigned and in-progress tasks per staff id.
	// Ids with no active tasks map to zero.
	CountActiveByAssignee(ctx context.Context, staffIDs []uuid.UUID) (map[uuid.UUID]int, error)

	// CompareAndSwap replaces the stored task if its version still equals
	// expectedVersion, then sets task.Version to the new version.
	// Returns ErrConflict on a version mismatch and ErrTaskNotFound if the
	// task no longer exists.
	CompareAndSwap(ctx context.Context, task *domain.Task, expectedVersion int) error

	// Delete removes a task permanently.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
