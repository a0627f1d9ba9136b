package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/events"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
)

// HandoffEngine reassigns an assigned task without touching its status.
type HandoffEngine struct {
	assigner *AssignmentEngine
	logger   *slog.Logger
}

// NewHandoffEngine creates a HandoffEngine.
func NewHandoffEngine(deps Dependencies, opts Options) (*HandoffEngine, error) {
	assigner, err := NewAssignmentEngine(deps, opts)
	if err != nil {
		return nil, err
	}
	return newHandoffEngine(assigner), nil
}

func newHandoffEngine(assigner *AssignmentEngine) *HandoffEngine {
	return &HandoffEngine{
		assigner: assigner,
		logger:   assigner.logger.With("operation", "handoff"),
	}
}

// Handoff moves task taskID to staff member toStaffID and records exactly one
// reassignment entry carrying reason.
func (h *HandoffEngine) Handoff(
	ctx context.Context,
	taskID, toStaffID uuid.UUID,
	reason string,
	actor domain.Actor,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, h.logger)
	w := h.assigner.writer

	if err := requireStaffActor(actor); err != nil {
		return nil, err
	}

	task, err := w.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, NewTaskServiceError("handoff", "failed to load task", err)
	}
	if _, err := h.assigner.loadAssignee(ctx, toStaffID); err != nil {
		return nil, NewTaskServiceError("handoff", "failed to load staff member", err)
	}

	expected := task.Version
	previous := task.AssignedTo
	if err := task.Handoff(toStaffID, actor.ID, reason, w.clock.Now()); err != nil {
		return nil, err
	}
	if err := w.save(ctx, task, expected); err != nil {
		return nil, NewTaskServiceError("handoff", "failed to save task", err)
	}

	log.Info("task handed off",
		slog.String("task_id", taskID.String()),
		slog.String("from_staff_id", previous.String()),
		slog.String("staff_id", toStaffID.String()),
		slog.String("actor_id", actor.ID.String()))

	w.emit(ctx, events.TaskAssigned, task)
	return task, nil
}
