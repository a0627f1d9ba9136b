package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/events"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
)

// TransitionGuard applies status changes under the transition policy.
type TransitionGuard struct {
	writer *taskWriter
	policy domain.TransitionPolicy
	logger *slog.Logger
}

// NewTransitionGuard creates a TransitionGuard.
func NewTransitionGuard(deps Dependencies, opts Options) (*TransitionGuard, error) {
	deps, err := deps.withDefaults()
	if err != nil {
		return nil, NewTaskServiceError("create_service", "invalid dependencies", err)
	}
	syncer, err := NewReverseSyncEngine(deps, opts)
	if err != nil {
		return nil, err
	}
	return newTransitionGuard(deps, opts, syncer), nil
}

func newTransitionGuard(deps Dependencies, opts Options, syncer *ReverseSyncEngine) *TransitionGuard {
	log := deps.Logger.With("component", "transition_guard")
	w := newTaskWriter(deps, opts, syncer)
	w.logger = log
	return &TransitionGuard{writer: w, policy: opts.Policy, logger: log}
}

// Transition moves task taskID to status `to` on behalf of actor.
//
// A rejected transition returns ErrInvalidTransition and leaves the task and
// its history untouched. So does losing a race with a concurrent writer.
// Once the write lands, the parent request (if any) is re-synced.
func (g *TransitionGuard) Transition(
	ctx context.Context,
	taskID uuid.UUID,
	to domain.TaskStatus,
	actor domain.Actor,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	if err := requireStaffActor(actor); err != nil {
		return nil, err
	}

	task, err := g.writer.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, NewTaskServiceError("transition", "failed to load task", err)
	}

	now := g.writer.clock.Now()
	if err := g.policy.Check(task, to, now); err != nil {
		log.Info("status transition rejected",
			slog.String("task_id", taskID.String()),
			slog.String("from", string(task.Status)),
			slog.String("to", string(to)),
			slog.String("reason", err.Error()))
		return nil, rejectTransition(err)
	}

	expected := task.Version
	from := task.Status
	task.ApplyTransition(to, actor.ID, now)
	if err := g.writer.save(ctx, task, expected); err != nil {
		log.Warn("status transition not saved",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("transition", "failed to save task", err)
	}

	log.Info("task status changed",
		slog.String("task_id", taskID.String()),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.String("actor_id", actor.ID.String()))

	g.writer.emit(ctx, events.TaskUpdated, task)
	g.writer.syncParent(ctx, task)
	return task, nil
}
