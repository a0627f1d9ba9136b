package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/events"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// CreateTaskInput carries a directly created task. When AssignTo is set the
// task is created already assigned to that staff member.
type CreateTaskInput struct {
	Title            string
	Description      string
	Department       domain.Department
	Category         string
	Priority         domain.Priority
	Attachments      []string
	EstimatedMinutes int
	AssignTo         *uuid.UUID
	Notes            string
}

// TaskService is the staff-facing task API.
type TaskService interface {
	// CreateTask creates a task with direct origin.
	CreateTask(ctx context.Context, actor domain.Actor, in CreateTaskInput) (*domain.Task, error)

	// GetTask retrieves a task by its ID.
	GetTask(ctx context.Context, actor domain.Actor, taskID uuid.UUID) (*domain.Task, error)

	// ListTasks returns tasks matching filter.
	ListTasks(ctx context.Context, actor domain.Actor, filter store.TaskFilter) ([]*domain.Task, error)

	// UpdateTaskDetails edits descriptive fields. It never changes
	// assignment or status.
	UpdateTaskDetails(ctx context.Context, actor domain.Actor, taskID uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)

	// DeleteTask permanently removes a task. Managers and admins only.
	DeleteTask(ctx context.Context, actor domain.Actor, taskID uuid.UUID) error

	// UpdateStatus runs a status change through the transition guard.
	UpdateStatus(ctx context.Context, actor domain.Actor, taskID uuid.UUID, to domain.TaskStatus) (*domain.Task, error)

	// AssignTask assigns a task to a staff member chosen by the actor.
	AssignTask(ctx context.Context, actor domain.Actor, in ManualAssignment) (*domain.Task, error)

	// HandoffTask reassigns an assigned task to another staff member.
	HandoffTask(ctx context.Context, actor domain.Actor, taskID, toStaffID uuid.UUID, reason string) (*domain.Task, error)
}

type taskServiceImpl struct {
	writer   *taskWriter
	guard    *TransitionGuard
	assigner *AssignmentEngine
	handoff  *HandoffEngine
	logger   *slog.Logger
}

// NewTaskService creates a TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(deps Dependencies, opts Options) (TaskService, error) {
	deps, err := deps.withDefaults()
	if err != nil {
		return nil, NewTaskServiceError("create_service", "invalid dependencies", err)
	}
	syncer, err := NewReverseSyncEngine(deps, opts)
	if err != nil {
		return nil, err
	}

	log := deps.Logger.With("component", "task_service")
	w := newTaskWriter(deps, opts, syncer)
	w.logger = log
	assigner := newAssignmentEngine(deps, opts, syncer)

	return &taskServiceImpl{
		writer:   w,
		guard:    newTransitionGuard(deps, opts, syncer),
		assigner: assigner,
		handoff:  newHandoffEngine(assigner),
		logger:   log,
	}, nil
}

// CreateTask implements TaskService.
func (s *taskServiceImpl) CreateTask(ctx context.Context, actor domain.Actor, in CreateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := requireStaffActor(actor); err != nil {
		return nil, err
	}

	now := s.writer.clock.Now()
	task, err := domain.NewTask(domain.TaskSpec{
		Title:            in.Title,
		Description:      in.Description,
		Department:       in.Department,
		Category:         in.Category,
		Priority:         in.Priority,
		Attachments:      in.Attachments,
		EstimatedMinutes: in.EstimatedMinutes,
		Origin:           domain.DirectOrigin(),
		CreatedBy:        actor.ID,
	}, now)
	if err != nil {
		return nil, err
	}

	if in.AssignTo != nil {
		if _, err := s.assigner.loadAssignee(ctx, *in.AssignTo); err != nil {
			return nil, NewTaskServiceError("create_task", "failed to load staff member", err)
		}
		task.Assign(*in.AssignTo, actor.ID, domain.AssignmentSourceUser, in.Notes, now)
	}

	if err := s.writer.tasks.Create(ctx, task); err != nil {
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("department", string(task.Department)),
		slog.String("actor_id", actor.ID.String()))

	s.writer.emit(ctx, events.TaskCreated, task)
	if task.AssignedTo != nil {
		s.writer.emit(ctx, events.TaskAssigned, task)
	}
	return task, nil
}

// GetTask implements TaskService.
func (s *taskServiceImpl) GetTask(ctx context.Context, actor domain.Actor, taskID uuid.UUID) (*domain.Task, error) {
	if err := requireStaffActor(actor); err != nil {
		return nil, err
	}
	task, err := s.writer.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, NewTaskServiceError("get_task", "failed to retrieve task", err)
	}
	return task, nil
}

// ListTasks implements TaskService.
func (s *taskServiceImpl) ListTasks(ctx context.Context, actor domain.Actor, filter store.TaskFilter) ([]*domain.Task, error) {
	if err := requireStaffActor(actor); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, domain.ErrInvalidTaskStatus
	}
	if filter.Department != nil && !filter.Department.Valid() {
		return nil, domain.ErrInvalidDepartment
	}
	tasks, err := s.writer.tasks.List(ctx, filter)
	if err != nil {
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

// UpdateTaskDetails implements TaskService.
func (s *taskServiceImpl) UpdateTaskDetails(
	ctx context.Context,
	actor domain.Actor,
	taskID uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	if err := requireStaffActor(actor); err != nil {
		return nil, err
	}

	task, err := s.writer.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, NewTaskServiceError("update_task", "failed to load task", err)
	}

	expected := task.Version
	if err := task.ApplyUpdate(update, s.writer.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.writer.save(ctx, task, expected); err != nil {
		return nil, NewTaskServiceError("update_task", "failed to save task", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task details updated",
		slog.String("task_id", taskID.String()),
		slog.String("actor_id", actor.ID.String()))

	s.writer.emit(ctx, events.TaskUpdated, task)
	return task, nil
}

// DeleteTask implements TaskService.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, actor domain.Actor, taskID uuid.UUID) error {
	if !actor.CanManage() {
		return fmt.Errorf("%w: only managers can delete tasks", ErrForbidden)
	}

	task, err := s.writer.tasks.GetByID(ctx, taskID)
	if err != nil {
		return NewTaskServiceError("delete_task", "failed to load task", err)
	}
	if err := s.writer.tasks.Delete(ctx, taskID); err != nil {
		return NewTaskServiceError("delete_task", "failed to delete task", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("actor_id", actor.ID.String()))

	s.writer.emit(ctx, events.TaskDeleted, task)
	// The remaining siblings may now map to a different request status.
	s.writer.syncParent(ctx, task)
	return nil
}

// UpdateStatus implements TaskService.
func (s *taskServiceImpl) UpdateStatus(
	ctx context.Context,
	actor domain.Actor,
	taskID uuid.UUID,
	to domain.TaskStatus,
) (*domain.Task, error) {
	return s.guard.Transition(ctx, taskID, to, actor)
}

// AssignTask implements TaskService.
func (s *taskServiceImpl) AssignTask(ctx context.Context, actor domain.Actor, in ManualAssignment) (*domain.Task, error) {
	return s.assigner.AssignManually(ctx, in, actor)
}

// HandoffTask implements TaskService.
func (s *taskServiceImpl) HandoffTask(
	ctx context.Context,
	actor domain.Actor,
	taskID, toStaffID uuid.UUID,
	reason string,
) (*domain.Task, error) {
	return s.handoff.Handoff(ctx, taskID, toStaffID, reason, actor)
}
