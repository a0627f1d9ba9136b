package domain

import (
	"time"

	"github.com/google/uuid"
)

// Guest request validation errors
var (
	ErrEmptyRequestID       = NewValidationError("id", "cannot be empty", ErrInvalidID)
	ErrEmptyRequestTitle    = NewValidationError("title", "cannot be empty", nil)
	ErrInvalidRequestType   = NewValidationError("request_type", "is not a known request type", nil)
	ErrInvalidRequestStatus = NewValidationError("status", "is not a known request status", nil)
	ErrMissingStayLink      = NewValidationError("check_in_out", "request must reference an active stay", nil)
	ErrAnonymousWithGuest   = NewValidationError("guest", "anonymous requests cannot carry a guest reference", nil)
	ErrInvalidRating        = NewValidationError("rating", "must be between 1 and 5", nil)
	ErrFeedbackNotAllowed   = NewValidationError("feedback", "only completed, attributed requests accept feedback", nil)
)

// Feedback is the guest's rating of a completed request.
type Feedback struct {
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// GuestServiceRequest is a guest-facing request that may spawn Tasks.
//
// Every request is linked to exactly one active stay. Anonymity hides only
// GuestID; the stay linkage is always present.
type GuestServiceRequest struct {
	ID               uuid.UUID     `json:"id"`
	GuestID          *uuid.UUID    `json:"guest_id,omitempty"`
	RoomID           uuid.UUID     `json:"room_id"`
	RoomNumber       string        `json:"room_number"`
	BookingID        uuid.UUID     `json:"booking_id"`
	CheckInOutID     uuid.UUID     `json:"check_in_out_id"`
	RequestType      RequestType   `json:"request_type"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Priority         Priority      `json:"priority"`
	Status           RequestStatus `json:"status"`
	AssignedTo       *uuid.UUID    `json:"assigned_to,omitempty"`
	AssignedAt       *time.Time    `json:"assigned_at,omitempty"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	Feedback         *Feedback     `json:"feedback,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	IsAnonymous      bool          `json:"is_anonymous"`
	RequiresFollowUp bool          `json:"requires_follow_up"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	Version          int           `json:"version"`
}

// GuestRequestSpec carries the guest-supplied fields of a new request.
type GuestRequestSpec struct {
	RequestType      RequestType
	Title            string
	Description      string
	Priority         Priority
	IsAnonymous      bool
	RequiresFollowUp bool
}

// NewGuestServiceRequest creates a pending request raised by guestID under
// stay. The guest reference is dropped when the request is anonymous.
func NewGuestServiceRequest(
	guestID uuid.UUID,
	stay *CheckIn,
	spec GuestRequestSpec,
	now time.Time,
) (*GuestServiceRequest, error) {
	if stay == nil {
		return nil, ErrMissingStayLink
	}
	priority := spec.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	now = now.UTC()
	req := &GuestServiceRequest{
		ID:               uuid.New(),
		RoomID:           stay.RoomID,
		RoomNumber:       stay.RoomNumber,
		BookingID:        stay.BookingID,
		CheckInOutID:     stay.ID,
		RequestType:      spec.RequestType,
		Title:            spec.Title,
		Description:      spec.Description,
		Priority:         priority,
		Status:           RequestStatusPending,
		IsAnonymous:      spec.IsAnonymous,
		RequiresFollowUp: spec.RequiresFollowUp,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if !spec.IsAnonymous {
		guest := guestID
		req.GuestID = &guest
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks if the GuestServiceRequest has valid data.
func (r *GuestServiceRequest) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyRequestID
	}
	if r.Title == "" {
		return ErrEmptyRequestTitle
	}
	if !r.RequestType.Valid() {
		return ErrInvalidRequestType
	}
	if !r.Priority.Valid() {
		return ErrInvalidPriority
	}
	if !r.Status.Valid() {
		return ErrInvalidRequestStatus
	}
	if r.CheckInOutID == uuid.Nil {
		return ErrMissingStayLink
	}
	if r.IsAnonymous && r.GuestID != nil {
		return ErrAnonymousWithGuest
	}
	return nil
}

// SetStatus moves the request to status and maintains the timestamps that
// depend on it.
func (r *GuestServiceRequest) SetStatus(status RequestStatus, now time.Time) error {
	if !status.Valid() {
		return ErrInvalidRequestStatus
	}
	now = now.UTC()
	r.Status = status
	if status == RequestStatusCompleted {
		r.CompletedAt = &now
	} else {
		r.CompletedAt = nil
	}
	r.UpdatedAt = now
	return nil
}

// AssignTo records the staff member handling the request.
func (r *GuestServiceRequest) AssignTo(staffID uuid.UUID, now time.Time) {
	now = now.UTC()
	assignee := staffID
	r.AssignedTo = &assignee
	r.AssignedAt = &now
	r.UpdatedAt = now
}

// RecordFeedback stores the guest's rating of a completed request.
func (r *GuestServiceRequest) RecordFeedback(rating int, comment string, now time.Time) error {
	if r.Status != RequestStatusCompleted || r.IsAnonymous {
		return ErrFeedbackNotAllowed
	}
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	now = now.UTC()
	r.Feedback = &Feedback{Rating: rating, Comment: comment, SubmittedAt: now}
	r.UpdatedAt = now
	return nil
}

// IsRaisedBy reports whether guestID submitted the request. Anonymous
// requests are never attributed.
func (r *GuestServiceRequest) IsRaisedBy(guestID uuid.UUID) bool {
	return r.GuestID != nil && *r.GuestID == guestID
}

// Clone returns a deep copy of r.
func (r *GuestServiceRequest) Clone() *GuestServiceRequest {
	c := *r
	c.GuestID = cloneUUID(r.GuestID)
	c.AssignedTo = cloneUUID(r.AssignedTo)
	c.AssignedAt = cloneTime(r.AssignedAt)
	c.CompletedAt = cloneTime(r.CompletedAt)
	if r.Feedback != nil {
		fb := *r.Feedback
		c.Feedback = &fb
	}
	return &c
}
