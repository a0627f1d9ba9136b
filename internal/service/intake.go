package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/events"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// RequestIntakeBridge accepts guest requests and, when the pipeline is
// enabled, spawns and assigns the task that serves each one.
type RequestIntakeBridge struct {
	requests store.GuestRequestStore
	stays    store.StayStore
	assigner *AssignmentEngine
	pipeline bool
	logger   *slog.Logger
}

// NewRequestIntakeBridge creates a RequestIntakeBridge.
func NewRequestIntakeBridge(deps Dependencies, opts Options) (*RequestIntakeBridge, error) {
	deps, err := deps.withDefaults()
	if err != nil {
		return nil, NewTaskServiceError("create_service", "invalid dependencies", err)
	}
	syncer, err := NewReverseSyncEngine(deps, opts)
	if err != nil {
		return nil, err
	}
	return newRequestIntakeBridge(deps, opts, newAssignmentEngine(deps, opts, syncer))
}

func newRequestIntakeBridge(deps Dependencies, opts Options, assigner *AssignmentEngine) (*RequestIntakeBridge, error) {
	if deps.Stays == nil {
		return nil, NewTaskServiceError("create_service", "invalid dependencies",
			errors.New("stay store cannot be nil"))
	}
	return &RequestIntakeBridge{
		requests: deps.Requests,
		stays:    deps.Stays,
		assigner: assigner,
		pipeline: opts.TaskPipeline,
		logger:   deps.Logger.With("component", "request_intake"),
	}, nil
}

// Submit records a guest request under the guest's active stay.
//
// A guest without an active check-in gets ErrPreconditionFailed, anonymous or
// not. When the pipeline is enabled a task is spawned and offered to the
// assignment engine; failures in that step are logged and the request is
// still returned as created.
func (b *RequestIntakeBridge) Submit(
	ctx context.Context,
	actor domain.Actor,
	spec domain.GuestRequestSpec,
) (*domain.GuestServiceRequest, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	if err := requireGuestActor(actor); err != nil {
		return nil, err
	}

	stay, err := b.stays.FindActiveCheckIn(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, store.ErrCheckInNotFound) {
			return nil, fmt.Errorf("%w: guest has no active check-in", ErrPreconditionFailed)
		}
		return nil, NewTaskServiceError("submit_request", "failed to resolve active check-in", err)
	}

	now := b.assigner.writer.clock.Now()
	req, err := domain.NewGuestServiceRequest(actor.ID, stay, spec, now)
	if err != nil {
		return nil, err
	}
	if err := b.requests.Create(ctx, req); err != nil {
		return nil, NewTaskServiceError("submit_request", "failed to save request", err)
	}

	log.Info("guest request created",
		slog.String("request_id", req.ID.String()),
		slog.String("request_type", string(req.RequestType)),
		slog.String("room_number", req.RoomNumber),
		slog.Bool("anonymous", req.IsAnonymous))

	if !b.pipeline {
		return req, nil
	}

	if err := b.spawnTask(ctx, req); err != nil {
		log.Error("failed to spawn task for guest request",
			slog.String("error", err.Error()),
			slog.String("request_id", req.ID.String()))
		return req, nil
	}

	// The spawned task may already have moved the request forward.
	if fresh, err := b.requests.GetByID(ctx, req.ID); err == nil {
		return fresh, nil
	}
	return req, nil
}

// spawnTask creates the task linked to req and attempts system assignment.
func (b *RequestIntakeBridge) spawnTask(ctx context.Context, req *domain.GuestServiceRequest) error {
	w := b.assigner.writer
	route := domain.MapRequestTypeToDeptCategory(string(req.RequestType))

	task, err := domain.NewTask(domain.TaskSpec{
		Title:       req.Title,
		Description: req.Description,
		Department:  route.Department,
		Category:    route.Category,
		Priority:    req.Priority,
		Origin:      domain.FromGuestRequest(req.ID),
		CreatedBy:   domain.SystemActor.ID,
	}, w.clock.Now())
	if err != nil {
		return fmt.Errorf("%w: build task: %w", ErrSyncFailure, err)
	}
	if err := w.tasks.Create(ctx, task); err != nil {
		return fmt.Errorf("%w: save task: %w", ErrSyncFailure, err)
	}
	w.emit(ctx, events.TaskCreated, task)

	logger.FromContextOrDefault(ctx, b.logger).Info("task spawned from guest request",
		slog.String("request_id", req.ID.String()),
		slog.String("task_id", task.ID.String()),
		slog.String("department", string(task.Department)),
		slog.String("category", task.Category))

	if _, err := b.assigner.AutoAssign(ctx, task); err != nil {
		return fmt.Errorf("%w: assign task: %w", ErrSyncFailure, err)
	}
	return nil
}
