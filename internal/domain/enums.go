package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Department is a staff organizational unit. Tasks are routed by department.
type Department string

const (
	DepartmentHousekeeping Department = "Housekeeping"
	DepartmentKitchen      Department = "Kitchen"
	DepartmentMaintenance  Department = "Maintenance"
	DepartmentService      Department = "Service"
)

// Departments lists the fixed department set in display order.
var Departments = []Department{
	DepartmentHousekeeping,
	DepartmentKitchen,
	DepartmentMaintenance,
	DepartmentService,
}

// Valid reports whether d is one of the fixed departments (exact match).
func (d Department) Valid() bool {
	for _, known := range Departments {
		if d == known {
			return true
		}
	}
	return false
}

// ResolveDepartment matches s case-insensitively against the fixed department
// set. It reports false instead of guessing when nothing matches.
func ResolveDepartment(s string) (Department, bool) {
	s = strings.TrimSpace(s)
	for _, known := range Departments {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

// Priority expresses urgency of a task or guest request.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// AssignmentSource records who made an assignment.
type AssignmentSource string

const (
	AssignmentSourceSystem AssignmentSource = "system"
	AssignmentSourceUser   AssignmentSource = "user"
)

// Role is the role of an authenticated actor or directory entry.
type Role string

const (
	RoleGuest   Role = "guest"
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
	// RoleSystem is used for mutations performed by the backend itself
	// (scheduler sweeps, intake task spawning, reverse sync).
	RoleSystem Role = "system"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleStaff, RoleManager, RoleAdmin, RoleSystem:
		return true
	default:
		return false
	}
}

// Actor is the trusted identity supplied by the authentication layer for
// every mutating operation.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

// SystemActor is the actor recorded for system-initiated mutations.
var SystemActor = Actor{ID: uuid.Nil, Role: RoleSystem}

// CanManage reports whether the actor may perform manager-only actions.
func (a Actor) CanManage() bool {
	return a.Role == RoleManager || a.Role == RoleAdmin
}

// IsSystem reports whether the actor is the backend itself.
func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}
