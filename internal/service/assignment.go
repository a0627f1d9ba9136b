package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/events"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// ManualAssignment is an actor-driven assignment request.
type ManualAssignment struct {
	TaskID           uuid.UUID
	StaffID          uuid.UUID
	EstimatedMinutes *int
	Priority         *domain.Priority
	Notes            string
}

// AssignmentEngine assigns tasks to staff, either on an actor's instruction
// or by selecting among eligible staff.
type AssignmentEngine struct {
	writer   *taskWriter
	staff    store.StaffDirectory
	selector StaffSelector
	policy   domain.TransitionPolicy
	logger   *slog.Logger
}

// NewAssignmentEngine creates an AssignmentEngine.
func NewAssignmentEngine(deps Dependencies, opts Options) (*AssignmentEngine, error) {
	deps, err := deps.withDefaults()
	if err != nil {
		return nil, NewTaskServiceError("create_service", "invalid dependencies", err)
	}
	syncer, err := NewReverseSyncEngine(deps, opts)
	if err != nil {
		return nil, err
	}
	return newAssignmentEngine(deps, opts, syncer), nil
}

func newAssignmentEngine(deps Dependencies, opts Options, syncer *ReverseSyncEngine) *AssignmentEngine {
	log := deps.Logger.With("component", "assignment_engine")
	w := newTaskWriter(deps, opts, syncer)
	w.logger = log
	return &AssignmentEngine{
		writer:   w,
		staff:    deps.Staff,
		selector: deps.Selector,
		policy:   opts.Policy,
		logger:   log,
	}
}

// loadAssignee returns the staff member staffID, or ErrInvalidRole if the
// directory entry is not staff.
func (e *AssignmentEngine) loadAssignee(ctx context.Context, staffID uuid.UUID) (*domain.Staff, error) {
	member, err := e.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if !member.IsStaff() {
		return nil, ErrInvalidRole
	}
	return member, nil
}

// AssignManually assigns a task to the staff member chosen by actor.
func (e *AssignmentEngine) AssignManually(
	ctx context.Context,
	in ManualAssignment,
	actor domain.Actor,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	if err := requireStaffActor(actor); err != nil {
		return nil, err
	}

	task, err := e.writer.tasks.GetByID(ctx, in.TaskID)
	if err != nil {
		return nil, NewTaskServiceError("assign", "failed to load task", err)
	}
	if _, err := e.loadAssignee(ctx, in.StaffID); err != nil {
		log.Info("manual assignment rejected",
			slog.String("task_id", in.TaskID.String()),
			slog.String("staff_id", in.StaffID.String()),
			slog.String("reason", err.Error()))
		return nil, NewTaskServiceError("assign", "failed to load staff member", err)
	}

	now := e.writer.clock.Now()
	if task.Status != domain.TaskStatusAssigned {
		if err := e.policy.Check(task, domain.TaskStatusAssigned, now); err != nil {
			return nil, rejectTransition(err)
		}
	}

	expected := task.Version
	update := domain.TaskUpdate{Priority: in.Priority, EstimatedMinutes: in.EstimatedMinutes}
	if err := task.ApplyUpdate(update, now); err != nil {
		return nil, err
	}
	task.Assign(in.StaffID, actor.ID, domain.AssignmentSourceUser, in.Notes, now)

	if err := e.writer.save(ctx, task, expected); err != nil {
		return nil, NewTaskServiceError("assign", "failed to save task", err)
	}

	log.Info("task assigned manually",
		slog.String("task_id", task.ID.String()),
		slog.String("staff_id", in.StaffID.String()),
		slog.String("actor_id", actor.ID.String()))

	e.writer.emit(ctx, events.TaskAssigned, task)
	e.writer.syncParent(ctx, task)
	return task, nil
}

// AutoAssign claims task for a selected eligible staff member. The claim is
// a compare-and-swap against the version task was read at, so it succeeds
// only if the task is still pending and unassigned.
//
// No eligible staff, or losing the claim to another writer, is not an error:
// it reports false and leaves the task for a later sweep or its new owner.
func (e *AssignmentEngine) AutoAssign(ctx context.Context, task *domain.Task) (bool, error) {
	log := logger.FromContextOrDefault(ctx, e.logger).
		With(slog.String("task_id", task.ID.String()))

	if task.Status != domain.TaskStatusPending || task.AssignedTo != nil || !task.IsActive {
		return false, nil
	}

	eligible, err := e.staff.ListEligible(ctx, task.Department)
	if err != nil {
		return false, NewTaskServiceError("auto_assign", "failed to list eligible staff", err)
	}
	if len(eligible) == 0 {
		log.Debug("no eligible staff, task stays pending",
			slog.String("department", string(task.Department)))
		return false, nil
	}

	chosen, err := e.selector.Select(ctx, task, eligible)
	if err != nil {
		return false, NewTaskServiceError("auto_assign", "failed to select staff", err)
	}

	expected := task.Version
	task.Assign(chosen.ID, domain.SystemActor.ID, domain.AssignmentSourceSystem, "", e.writer.clock.Now())
	if err := e.writer.save(ctx, task, expected); err != nil {
		if store.IsConflictError(err) {
			log.Debug("task claimed by another writer")
			return false, nil
		}
		return false, NewTaskServiceError("auto_assign", "failed to save task", err)
	}

	log.Info("task assigned by system", slog.String("staff_id", chosen.ID.String()))

	e.writer.emit(ctx, events.TaskAssigned, task)
	e.writer.syncParent(ctx, task)
	return true, nil
}
