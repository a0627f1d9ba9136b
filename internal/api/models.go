package api

import (
	"github.com/phrazzld/hotel-ops-api/internal/domain"
)

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	Title            string   `json:"title"             validate:"required,max=200"`
	Description      string   `json:"description"       validate:"max=4000"`
	Department       string   `json:"department"        validate:"required"`
	Category         string   `json:"category"          validate:"max=100"`
	Priority         string   `json:"priority"          validate:"omitempty,oneof=low medium high urgent"`
	Attachments      []string `json:"attachments"       validate:"max=20,dive,required"`
	EstimatedMinutes int      `json:"estimated_minutes" validate:"gte=0"`
	AssignTo         string   `json:"assign_to"         validate:"omitempty,uuid"`
	Notes            string   `json:"notes"             validate:"max=2000"`
}

// UpdateTaskRequest is the body of PATCH /api/tasks/{id}. Absent fields are
// left unchanged.
type UpdateTaskRequest struct {
	Title            *string  `json:"title"             validate:"omitempty,min=1,max=200"`
	Description      *string  `json:"description"       validate:"omitempty,max=4000"`
	Category         *string  `json:"category"          validate:"omitempty,max=100"`
	Priority         *string  `json:"priority"          validate:"omitempty,oneof=low medium high urgent"`
	Attachments      []string `json:"attachments"       validate:"omitempty,max=20,dive,required"`
	EstimatedMinutes *int     `json:"estimated_minutes" validate:"omitempty,gte=0"`
	Notes            *string  `json:"notes"             validate:"omitempty,max=2000"`
}

// StatusChangeRequest is the body of POST /api/tasks/{id}/status.
type StatusChangeRequest struct {
	Status string `json:"status" validate:"required,oneof=pending assigned in_progress completed cancelled"`
}

// AssignTaskRequest is the body of POST /api/tasks/{id}/assign.
type AssignTaskRequest struct {
	StaffID          string  `json:"staff_id"          validate:"required,uuid"`
	EstimatedMinutes *int    `json:"estimated_minutes" validate:"omitempty,gte=0"`
	Priority         *string `json:"priority"          validate:"omitempty,oneof=low medium high urgent"`
	Notes            string  `json:"notes"             validate:"max=2000"`
}

// HandoffRequest is the body of POST /api/tasks/{id}/handoff.
type HandoffRequest struct {
	StaffID string `json:"staff_id" validate:"required,uuid"`
	Reason  string `json:"reason"   validate:"max=2000"`
}

// TaskListResponse wraps a page of tasks.
type TaskListResponse struct {
	Tasks []*domain.Task `json:"tasks"`
	Count int            `json:"count"`
}

// CreateGuestRequestRequest is the body of POST /api/guest-requests.
type CreateGuestRequestRequest struct {
	RequestType      string `json:"request_type"       validate:"required"`
	Title            string `json:"title"              validate:"required,max=200"`
	Description      string `json:"description"        validate:"max=4000"`
	Priority         string `json:"priority"           validate:"omitempty,oneof=low medium high urgent"`
	IsAnonymous      bool   `json:"is_anonymous"`
	RequiresFollowUp bool   `json:"requires_follow_up"`
}

// UpdateRequestStatusRequest is the body of PATCH /api/guest-requests/{id}/status.
type UpdateRequestStatusRequest struct {
	Status           string  `json:"status"             validate:"required,oneof=pending assigned in_progress completed cancelled"`
	Notes            *string `json:"notes"              validate:"omitempty,max=2000"`
	RequiresFollowUp *bool   `json:"requires_follow_up"`
}

// FeedbackRequest is the body of POST /api/guest-requests/{id}/feedback.
type FeedbackRequest struct {
	Rating  int    `json:"rating"  validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// GuestRequestListResponse wraps a page of guest requests.
type GuestRequestListResponse struct {
	Requests []*domain.GuestServiceRequest `json:"requests"`
	Count    int                           `json:"count"`
}

func priorityPtr(raw *string) *domain.Priority {
	if raw == nil {
		return nil
	}
	p := domain.Priority(*raw)
	return &p
}
