package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
)

// StayStore resolves the stay a guest is currently checked in under.
type StayStore interface {
	// FindActiveCheckIn returns the guest's checked_in stay.
	// Returns ErrCheckInNotFound if the guest is not checked in.
	FindActiveCheckIn(ctx context.Context, guestID uuid.UUID) (*domain.CheckIn, error)
}
