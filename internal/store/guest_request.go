package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
)

// RequestFilter narrows guest request listings. Zero fields do not filter.
type RequestFilter struct {
	Status     *domain.RequestStatus
	RoomNumber string
	GuestID    *uuid.UUID
	Limit      int
	Offset     int
}

// GuestRequestStore defines the interface for guest service request persistence.
type GuestRequestStore interface {
	// Create saves a new request. The request's Version is set to 1.
	Create(ctx context.Context, req *domain.GuestServiceRequest) error

	// GetByID retrieves a request by its unique ID.
	// Returns ErrGuestRequestNotFound if the request does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GuestServiceRequest, error)

	// List returns requests matching filter, newest first.
	List(ctx context.Context, filter RequestFilter) ([]*domain.GuestServiceRequest, error)

	// CompareAndSwap replaces the stored request if its version still equals
	// expectedVersion. Same contract as TaskStore.CompareAndSwap.
	CompareAndSwap(ctx context.Context, req *domain.GuestServiceRequest, expectedVersion int) error
}
