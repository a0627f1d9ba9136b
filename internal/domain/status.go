package domain

import (
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusAssigned   TaskStatus = "assigned"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// IsTerminal reports whether s is completed or cancelled.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// IsActive reports whether a task in status s is being worked on or waiting
// for its assignee to start.
func (s TaskStatus) IsActive() bool {
	return s == TaskStatusAssigned || s == TaskStatusInProgress
}

// statusRank orders task statuses. Terminal statuses share a rank.
var statusRank = map[TaskStatus]int{
	TaskStatusPending:    0,
	TaskStatusAssigned:   1,
	TaskStatusInProgress: 2,
	TaskStatusCompleted:  3,
	TaskStatusCancelled:  3,
}

// StatusRank returns the rank of s, or -1 for an unknown status.
func StatusRank(s TaskStatus) int {
	rank, ok := statusRank[s]
	if !ok {
		return -1
	}
	return rank
}

// IsDowngrade reports whether moving from -> to lowers the status rank.
func IsDowngrade(from, to TaskStatus) bool {
	return StatusRank(to) < StatusRank(from)
}

// RequestStatus is the status of a GuestServiceRequest. It uses the same
// vocabulary as TaskStatus.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusAssigned   RequestStatus = "assigned"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAssigned, RequestStatusInProgress,
		RequestStatusCompleted, RequestStatusCancelled:
		return true
	default:
		return false
	}
}

// DefaultDowngradeGracePeriod is the window after a status change during
// which a downgrade is still accepted.
const DefaultDowngradeGracePeriod = 5 * time.Minute

// TransitionPolicy decides whether a task may move to a new status.
type TransitionPolicy struct {
	// GracePeriod bounds how long after the last status change a downgrade
	// is accepted.
	GracePeriod time.Duration

	// AllowTerminalSwap permits completed <-> cancelled. Both share a rank,
	// so when allowed these moves skip the grace check entirely.
	AllowTerminalSwap bool
}

// DefaultTransitionPolicy returns the policy with a five minute grace period
// and terminal swaps allowed.
func DefaultTransitionPolicy() TransitionPolicy {
	return TransitionPolicy{
		GracePeriod:       DefaultDowngradeGracePeriod,
		AllowTerminalSwap: true,
	}
}

// TransitionError explains why a policy rejected a transition.
type TransitionError struct {
	From   TaskStatus
	To     TaskStatus
	Reason string
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move task from %s to %s: %s", e.From, e.To, e.Reason)
}

// Unwrap ties every TransitionError to ErrTransitionRejected.
func (e *TransitionError) Unwrap() error {
	return ErrTransitionRejected
}

// Check validates moving task t to status `to` at time now. It never mutates t.
func (p TransitionPolicy) Check(t *Task, to TaskStatus, now time.Time) error {
	if !to.Valid() {
		return NewValidationError("status", fmt.Sprintf("%q is not a valid task status", to), nil)
	}
	from := t.Status
	if from == to {
		return &TransitionError{From: from, To: to, Reason: "task is already in that status"}
	}
	if from.IsTerminal() && to.IsTerminal() && !p.AllowTerminalSwap {
		return &TransitionError{From: from, To: to, Reason: "terminal statuses cannot be swapped"}
	}
	if !IsDowngrade(from, to) {
		return nil
	}

	elapsed := now.Sub(t.StatusChangedAt())
	if elapsed > p.GracePeriod {
		return &TransitionError{
			From: from,
			To:   to,
			Reason: fmt.Sprintf("downgrade window of %s elapsed %s ago",
				p.GracePeriod, (elapsed - p.GracePeriod).Round(time.Second)),
		}
	}
	return nil
}
