package domain

import (
	"time"

	"github.com/google/uuid"
)

// Task validation errors
var (
	ErrEmptyTaskID        = NewValidationError("id", "cannot be empty", ErrInvalidID)
	ErrEmptyTaskTitle     = NewValidationError("title", "cannot be empty", nil)
	ErrInvalidDepartment  = NewValidationError("department", "is not a known department", nil)
	ErrInvalidPriority    = NewValidationError("priority", "is not a known priority", nil)
	ErrInvalidTaskStatus  = NewValidationError("status", "is not a known task status", nil)
	ErrTaskNotAssigned    = NewValidationError("assigned_to", "task has no current assignee", nil)
	ErrSameAssignee       = NewValidationError("staff_id", "task is already assigned to that staff member", nil)
	ErrTaskClosed         = NewValidationError("status", "task is completed or cancelled", nil)
	ErrNegativeEstimation = NewValidationError("estimated_minutes", "cannot be negative", nil)
)

// AssignmentAction labels an assignment history entry.
type AssignmentAction string

const (
	AssignmentActionAssigned   AssignmentAction = "assigned"
	AssignmentActionReassigned AssignmentAction = "reassigned"
)

// StatusChange is one entry of a task's append-only status history.
type StatusChange struct {
	From      TaskStatus `json:"from"`
	To        TaskStatus `json:"to"`
	ChangedBy uuid.UUID  `json:"changed_by"`
	ChangedAt time.Time  `json:"changed_at"`
}

// AssignmentRecord is one entry of a task's append-only assignment history.
type AssignmentRecord struct {
	AssignedTo   uuid.UUID        `json:"assigned_to"`
	AssignedFrom *uuid.UUID       `json:"assigned_from,omitempty"`
	AssignedBy   uuid.UUID        `json:"assigned_by"`
	Source       AssignmentSource `json:"source"`
	Status       AssignmentAction `json:"status"`
	Notes        string           `json:"notes,omitempty"`
	At           time.Time        `json:"at"`
}

// Task is an internal unit of work assigned to hotel staff.
//
// Version is bumped by the store on every successful write and is the
// compare-and-swap key for concurrent mutation.
type Task struct {
	ID                uuid.UUID          `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Department        Department         `json:"department"`
	Category          string             `json:"category"`
	Priority          Priority           `json:"priority"`
	Status            TaskStatus         `json:"status"`
	AssignedTo        *uuid.UUID         `json:"assigned_to,omitempty"`
	AssignedBy        *uuid.UUID         `json:"assigned_by,omitempty"`
	AssignedAt        *time.Time         `json:"assigned_at,omitempty"`
	AssignmentSource  AssignmentSource   `json:"assignment_source,omitempty"`
	CreatedBy         uuid.UUID          `json:"created_by"`
	Attachments       []string           `json:"attachments"`
	EstimatedMinutes  int                `json:"estimated_minutes,omitempty"`
	Notes             string             `json:"notes,omitempty"`
	StatusHistory     []StatusChange     `json:"status_history"`
	AssignmentHistory []AssignmentRecord `json:"assignment_history"`
	LastStatusChange  *time.Time         `json:"last_status_change,omitempty"`
	AcceptedBy        *uuid.UUID         `json:"accepted_by,omitempty"`
	AcceptedAt        *time.Time         `json:"accepted_at,omitempty"`
	CompletedAt       *time.Time         `json:"completed_at,omitempty"`
	Origin            Origin             `json:"origin"`
	IsActive          bool               `json:"is_active"`
	RequestedAt       time.Time          `json:"requested_at"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	Version           int                `json:"version"`
}

// TaskSpec carries the caller-supplied fields of a new task.
type TaskSpec struct {
	Title            string
	Description      string
	Department       Department
	Category         string
	Priority         Priority
	Attachments      []string
	EstimatedMinutes int
	Origin           Origin
	CreatedBy        uuid.UUID
}

// NewTask creates a pending, active task at time now.
// Priority defaults to medium when empty.
func NewTask(spec TaskSpec, now time.Time) (*Task, error) {
	priority := spec.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	attachments := spec.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	now = now.UTC()
	task := &Task{
		ID:                uuid.New(),
		Title:             spec.Title,
		Description:       spec.Description,
		Department:        spec.Department,
		Category:          spec.Category,
		Priority:          priority,
		Status:            TaskStatusPending,
		CreatedBy:         spec.CreatedBy,
		Attachments:       attachments,
		EstimatedMinutes:  spec.EstimatedMinutes,
		StatusHistory:     []StatusChange{},
		AssignmentHistory: []AssignmentRecord{},
		Origin:            spec.Origin,
		IsActive:          true,
		RequestedAt:       now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.Title == "" {
		return ErrEmptyTaskTitle
	}
	if !t.Department.Valid() {
		return ErrInvalidDepartment
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	if !t.Status.Valid() {
		return ErrInvalidTaskStatus
	}
	if t.EstimatedMinutes < 0 {
		return ErrNegativeEstimation
	}
	return nil
}

// StatusChangedAt returns when the status last changed, or the creation
// time if it never has.
func (t *Task) StatusChangedAt() time.Time {
	if t.LastStatusChange != nil {
		return *t.LastStatusChange
	}
	return t.CreatedAt
}

// IsAssignedTo reports whether staffID is the current assignee.
func (t *Task) IsAssignedTo(staffID uuid.UUID) bool {
	return t.AssignedTo != nil && *t.AssignedTo == staffID
}

// ApplyTransition records a status change made by actor at now. Policy checks
// belong to the caller; this only mutates state and appends history.
func (t *Task) ApplyTransition(to TaskStatus, actor uuid.UUID, now time.Time) {
	now = now.UTC()
	t.StatusHistory = append(t.StatusHistory, StatusChange{
		From:      t.Status,
		To:        to,
		ChangedBy: actor,
		ChangedAt: now,
	})
	t.Status = to
	t.LastStatusChange = &now
	if to == TaskStatusCompleted {
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	if to == TaskStatusInProgress && t.AcceptedBy == nil {
		accepted := actor
		t.AcceptedBy = &accepted
		t.AcceptedAt = &now
	}
	t.UpdatedAt = now
}

// Assign sets the assignee, records the assignment, and moves the task to
// assigned if it is not already there.
func (t *Task) Assign(staffID, actor uuid.UUID, source AssignmentSource, notes string, now time.Time) {
	now = now.UTC()
	previous := t.AssignedTo

	assignee := staffID
	assigner := actor
	t.AssignedTo = &assignee
	t.AssignedBy = &assigner
	t.AssignedAt = &now
	t.AssignmentSource = source
	t.AssignmentHistory = append(t.AssignmentHistory, AssignmentRecord{
		AssignedTo:   staffID,
		AssignedFrom: previous,
		AssignedBy:   actor,
		Source:       source,
		Status:       AssignmentActionAssigned,
		Notes:        notes,
		At:           now,
	})

	if t.Status != TaskStatusAssigned {
		t.ApplyTransition(TaskStatusAssigned, actor, now)
	}
	t.UpdatedAt = now
}

// Handoff moves an assigned task to a different staff member. Status is
// left untouched.
func (t *Task) Handoff(staffID, actor uuid.UUID, reason string, now time.Time) error {
	if t.AssignedTo == nil {
		return ErrTaskNotAssigned
	}
	if *t.AssignedTo == staffID {
		return ErrSameAssignee
	}
	if t.Status.IsTerminal() {
		return ErrTaskClosed
	}

	now = now.UTC()
	previous := *t.AssignedTo
	assignee := staffID
	assigner := actor
	t.AssignedTo = &assignee
	t.AssignedBy = &assigner
	t.AssignedAt = &now
	t.AssignmentSource = AssignmentSourceUser
	t.AssignmentHistory = append(t.AssignmentHistory, AssignmentRecord{
		AssignedTo:   staffID,
		AssignedFrom: &previous,
		AssignedBy:   actor,
		Source:       AssignmentSourceUser,
		Status:       AssignmentActionReassigned,
		Notes:        reason,
		At:           now,
	})
	t.UpdatedAt = now
	return nil
}

// TaskUpdate holds optional edits to descriptive task fields. Assignment and
// status are deliberately absent.
type TaskUpdate struct {
	Title            *string
	Description      *string
	Category         *string
	Priority         *Priority
	Attachments      []string
	EstimatedMinutes *int
	Notes            *string
}

// ApplyUpdate applies the non-nil fields of u and revalidates.
func (t *Task) ApplyUpdate(u TaskUpdate, now time.Time) error {
	updated := *t
	if u.Title != nil {
		updated.Title = *u.Title
	}
	if u.Description != nil {
		updated.Description = *u.Description
	}
	if u.Category != nil {
		updated.Category = *u.Category
	}
	if u.Priority != nil {
		updated.Priority = *u.Priority
	}
	if u.Attachments != nil {
		updated.Attachments = append([]string(nil), u.Attachments...)
	}
	if u.EstimatedMinutes != nil {
		updated.EstimatedMinutes = *u.EstimatedMinutes
	}
	if u.Notes != nil {
		updated.Notes = *u.Notes
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	updated.UpdatedAt = now.UTC()
	*t = updated
	return nil
}

// TrimHistory drops the oldest history entries beyond limit. A limit of zero
// or less keeps everything.
func (t *Task) TrimHistory(limit int) {
	if limit <= 0 {
		return
	}
	if n := len(t.StatusHistory); n > limit {
		t.StatusHistory = append([]StatusChange(nil), t.StatusHistory[n-limit:]...)
	}
	if n := len(t.AssignmentHistory); n > limit {
		t.AssignmentHistory = append([]AssignmentRecord(nil), t.AssignmentHistory[n-limit:]...)
	}
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	c := *t
	c.AssignedTo = cloneUUID(t.AssignedTo)
	c.AssignedBy = cloneUUID(t.AssignedBy)
	c.AcceptedBy = cloneUUID(t.AcceptedBy)
	c.AssignedAt = cloneTime(t.AssignedAt)
	c.AcceptedAt = cloneTime(t.AcceptedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.LastStatusChange = cloneTime(t.LastStatusChange)
	c.Attachments = append([]string{}, t.Attachments...)
	c.StatusHistory = append([]StatusChange{}, t.StatusHistory...)
	c.AssignmentHistory = make([]AssignmentRecord, len(t.AssignmentHistory))
	for i, rec := range t.AssignmentHistory {
		rec.AssignedFrom = cloneUUID(rec.AssignedFrom)
		c.AssignmentHistory[i] = rec
	}
	return &c
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
