package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
)

// StaffDirectory is a read-only view of hotel staff.
type StaffDirectory interface {
	// GetByID returns the directory entry for id.
	// Returns ErrStaffNotFound if there is none.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error)

	// ListEligible returns the active, approved staff of department d,
	// ordered by id.
	ListEligible(ctx context.Context, d domain.Department) ([]*domain.Staff, error)
}
