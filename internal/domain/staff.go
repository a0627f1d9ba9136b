package domain

import "github.com/google/uuid"

// Staff is a read-only staff directory entry.
type Staff struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       Role        `json:"role"`
	Department *Department `json:"department,omitempty"`
	IsActive   bool        `json:"is_active"`
	IsApproved bool        `json:"is_approved"`
}

// IsStaff reports whether the entry has the staff role.
func (s *Staff) IsStaff() bool {
	return s.Role == RoleStaff
}

// IsEligibleFor reports whether s may be auto-assigned work for department d:
// an active, approved staff member whose profile department is d.
func (s *Staff) IsEligibleFor(d Department) bool {
	return s.IsStaff() &&
		s.IsActive &&
		s.IsApproved &&
		s.Department != nil &&
		*s.Department == d
}
