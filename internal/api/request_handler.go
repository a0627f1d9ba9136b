package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/hotel-ops-api/internal/api/shared"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
	"github.com/phrazzld/hotel-ops-api/internal/service"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// GuestRequestHandler handles guest service request endpoints.
type GuestRequestHandler struct {
	requests service.GuestRequestService
	logger   *slog.Logger
}

// NewGuestRequestHandler creates a new GuestRequestHandler.
func NewGuestRequestHandler(requests service.GuestRequestService, logger *slog.Logger) *GuestRequestHandler {
	if requests == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("requests cannot be nil for GuestRequestHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GuestRequestHandler{
		requests: requests,
		logger:   logger.With(slog.String("component", "guest_request_handler")),
	}
}

// SubmitRequest handles POST /guest-requests.
func (h *GuestRequestHandler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	var req CreateGuestRequestRequest
	if !decode(w, r, &req) {
		return
	}

	created, err := h.requests.SubmitRequest(r.Context(), actor, domain.GuestRequestSpec{
		RequestType:      domain.RequestType(req.RequestType),
		Title:            req.Title,
		Description:      req.Description,
		Priority:         domain.Priority(req.Priority),
		IsAnonymous:      req.IsAnonymous,
		RequiresFollowUp: req.RequiresFollowUp,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit request")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("guest request submitted via API",
		slog.String("request_id", created.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, created)
}

// ListRequests handles GET /guest-requests.
func (h *GuestRequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var filter store.RequestFilter
	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		status := domain.RequestStatus(raw)
		if !status.Valid() {
			HandleAPIError(w, r, domain.ErrInvalidRequestStatus, "")
			return
		}
		filter.Status = &status
	}
	filter.RoomNumber = q.Get("room")

	var err error
	if filter.GuestID, err = queryUUID(r, "guest_id"); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if filter.Limit, filter.Offset, err = queryPage(r); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	requests, err := h.requests.ListRequests(r.Context(), actor, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list requests")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, GuestRequestListResponse{Requests: requests, Count: len(requests)})
}

// GetRequest handles GET /guest-requests/{id}.
func (h *GuestRequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	actor, requestID, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	req, err := h.requests.GetRequest(r.Context(), actor, requestID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get request")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, req)
}

// UpdateStatus handles PATCH /guest-requests/{id}/status.
func (h *GuestRequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, requestID, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var body UpdateRequestStatusRequest
	if !decode(w, r, &body) {
		return
	}

	req, err := h.requests.UpdateRequestStatus(r.Context(), actor, requestID, service.RequestStatusUpdate{
		Status:           domain.RequestStatus(body.Status),
		Notes:            body.Notes,
		RequiresFollowUp: body.RequiresFollowUp,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update request")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, req)
}

// SubmitFeedback handles POST /guest-requests/{id}/feedback.
func (h *GuestRequestHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	actor, requestID, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var body FeedbackRequest
	if !decode(w, r, &body) {
		return
	}

	req, err := h.requests.SubmitFeedback(r.Context(), actor, requestID, body.Rating, body.Comment)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit feedback")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, req)
}
