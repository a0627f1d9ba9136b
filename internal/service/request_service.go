package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/platform/clock"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// RequestStatusUpdate is a staff edit of a guest request.
type RequestStatusUpdate struct {
	Status           domain.RequestStatus
	Notes            *string
	RequiresFollowUp *bool
}

// GuestRequestService is the API over guest service requests.
type GuestRequestService interface {
	// SubmitRequest records a new request from a checked-in guest.
	SubmitRequest(ctx context.Context, actor domain.Actor, spec domain.GuestRequestSpec) (*domain.GuestServiceRequest, error)

	// GetRequest retrieves a request. Guests see only their own requests.
	GetRequest(ctx context.Context, actor domain.Actor, requestID uuid.UUID) (*domain.GuestServiceRequest, error)

	// ListRequests returns requests matching filter. Guests are restricted
	// to their own requests.
	ListRequests(ctx context.Context, actor domain.Actor, filter store.RequestFilter) ([]*domain.GuestServiceRequest, error)

	// UpdateRequestStatus lets staff move a request and annotate it.
	UpdateRequestStatus(ctx context.Context, actor domain.Actor, requestID uuid.UUID, update RequestStatusUpdate) (*domain.GuestServiceRequest, error)

	// SubmitFeedback records the originating guest's rating of a completed request.
	SubmitFeedback(ctx context.Context, actor domain.Actor, requestID uuid.UUID, rating int, comment string) (*domain.GuestServiceRequest, error)
}

type guestRequestServiceImpl struct {
	requests store.GuestRequestStore
	intake   *RequestIntakeBridge
	clock    clock.Clock
	logger   *slog.Logger
}

// NewGuestRequestService creates a GuestRequestService.
func NewGuestRequestService(deps Dependencies, opts Options) (GuestRequestService, error) {
	intake, err := NewRequestIntakeBridge(deps, opts)
	if err != nil {
		return nil, err
	}
	deps, _ = deps.withDefaults()
	return &guestRequestServiceImpl{
		requests: deps.Requests,
		intake:   intake,
		clock:    deps.Clock,
		logger:   deps.Logger.With("component", "guest_request_service"),
	}, nil
}

// SubmitRequest implements GuestRequestService.
func (s *guestRequestServiceImpl) SubmitRequest(
	ctx context.Context,
	actor domain.Actor,
	spec domain.GuestRequestSpec,
) (*domain.GuestServiceRequest, error) {
	return s.intake.Submit(ctx, actor, spec)
}

// GetRequest implements GuestRequestService.
func (s *guestRequestServiceImpl) GetRequest(
	ctx context.Context,
	actor domain.Actor,
	requestID uuid.UUID,
) (*domain.GuestServiceRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, NewTaskServiceError("get_request", "failed to retrieve request", err)
	}
	if actor.Role == domain.RoleGuest {
		if !req.IsRaisedBy(actor.ID) {
			return nil, fmt.Errorf("%w: request belongs to another guest", ErrForbidden)
		}
		return req, nil
	}
	if err := requireStaffActor(actor); err != nil {
		return nil, err
	}
	return req, nil
}

// ListRequests implements GuestRequestService.
func (s *guestRequestServiceImpl) ListRequests(
	ctx context.Context,
	actor domain.Actor,
	filter store.RequestFilter,
) ([]*domain.GuestServiceRequest, error) {
	if actor.Role == domain.RoleGuest {
		guestID := actor.ID
		filter.GuestID = &guestID
	} else if err := requireStaffActor(actor); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, domain.ErrInvalidRequestStatus
	}

	reqs, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, NewTaskServiceError("list_requests", "failed to list requests", err)
	}
	return reqs, nil
}

// UpdateRequestStatus implements GuestRequestService.
func (s *guestRequestServiceImpl) UpdateRequestStatus(
	ctx context.Context,
	actor domain.Actor,
	requestID uuid.UUID,
	update RequestStatusUpdate,
) (*domain.GuestServiceRequest, error) {
	if err := requireStaffActor(actor); err != nil {
		return nil, err
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, NewTaskServiceError("update_request_status", "failed to load request", err)
	}

	now := s.clock.Now()
	expected := req.Version
	if err := req.SetStatus(update.Status, now); err != nil {
		return nil, err
	}
	if update.Status == domain.RequestStatusAssigned {
		req.AssignTo(actor.ID, now)
	}
	if update.Notes != nil {
		req.Notes = *update.Notes
	}
	if update.RequiresFollowUp != nil {
		req.RequiresFollowUp = *update.RequiresFollowUp
	}

	if err := s.requests.CompareAndSwap(ctx, req, expected); err != nil {
		return nil, NewTaskServiceError("update_request_status", "failed to save request", rejectTransition(err))
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("guest request status updated",
		slog.String("request_id", requestID.String()),
		slog.String("status", string(update.Status)),
		slog.String("actor_id", actor.ID.String()))
	return req, nil
}

// SubmitFeedback implements GuestRequestService.
func (s *guestRequestServiceImpl) SubmitFeedback(
	ctx context.Context,
	actor domain.Actor,
	requestID uuid.UUID,
	rating int,
	comment string,
) (*domain.GuestServiceRequest, error) {
	if err := requireGuestActor(actor); err != nil {
		return nil, err
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, NewTaskServiceError("submit_feedback", "failed to load request", err)
	}
	if req.IsAnonymous {
		return nil, domain.ErrFeedbackNotAllowed
	}
	if !req.IsRaisedBy(actor.ID) {
		return nil, fmt.Errorf("%w: request belongs to another guest", ErrForbidden)
	}

	expected := req.Version
	if err := req.RecordFeedback(rating, comment, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.requests.CompareAndSwap(ctx, req, expected); err != nil {
		return nil, NewTaskServiceError("submit_feedback", "failed to save request", rejectTransition(err))
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("guest feedback recorded",
		slog.String("request_id", requestID.String()),
		slog.Int("rating", rating))
	return req, nil
}
