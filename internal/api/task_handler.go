package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/api/shared"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
	"github.com/phrazzld/hotel-ops-api/internal/service"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if tasks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tasks cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// decode reads and validates a JSON body, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		if MapErrorToStatusCode(err) == http.StatusBadRequest {
			HandleAPIError(w, r, err, "")
		} else {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		}
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}
	return true
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	var req CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}

	dept, ok := domain.ResolveDepartment(req.Department)
	if !ok {
		HandleAPIError(w, r, domain.ErrInvalidDepartment, "")
		return
	}
	in := service.CreateTaskInput{
		Title:            req.Title,
		Description:      req.Description,
		Department:       dept,
		Category:         req.Category,
		Priority:         domain.Priority(req.Priority),
		Attachments:      req.Attachments,
		EstimatedMinutes: req.EstimatedMinutes,
		Notes:            req.Notes,
	}
	if req.AssignTo != "" {
		staffID := uuid.MustParse(req.AssignTo)
		in.AssignTo = &staffID
	}

	task, err := h.tasks.CreateTask(r.Context(), actor, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("task created via API",
		slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// ListTasks handles GET /tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	filter, err := taskFilterFromQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tasks, err := h.tasks.ListTasks(r.Context(), actor, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasks, Count: len(tasks)})
}

func taskFilterFromQuery(r *http.Request) (store.TaskFilter, error) {
	var filter store.TaskFilter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status := domain.TaskStatus(raw)
		if !status.Valid() {
			return filter, domain.ErrInvalidTaskStatus
		}
		filter.Status = &status
	}
	if raw := q.Get("department"); raw != "" {
		dept, ok := domain.ResolveDepartment(raw)
		if !ok {
			return filter, domain.ErrInvalidDepartment
		}
		filter.Department = &dept
	}

	var err error
	if filter.AssignedTo, err = queryUUID(r, "assigned_to"); err != nil {
		return filter, err
	}
	if filter.OriginRequestID, err = queryUUID(r, "request_id"); err != nil {
		return filter, err
	}
	if filter.Limit, filter.Offset, err = queryPage(r); err != nil {
		return filter, err
	}
	return filter, nil
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	task, err := h.tasks.GetTask(r.Context(), actor, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// UpdateTask handles PATCH /tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateTaskRequest
	if !decode(w, r, &req) {
		return
	}

	update := domain.TaskUpdate{
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Priority:         priorityPtr(req.Priority),
		Attachments:      req.Attachments,
		EstimatedMinutes: req.EstimatedMinutes,
		Notes:            req.Notes,
	}
	task, err := h.tasks.UpdateTaskDetails(r.Context(), actor, taskID, update)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.tasks.DeleteTask(r.Context(), actor, taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangeStatus handles POST /tasks/{id}/status.
func (h *TaskHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req StatusChangeRequest
	if !decode(w, r, &req) {
		return
	}

	task, err := h.tasks.UpdateStatus(r.Context(), actor, taskID, domain.TaskStatus(req.Status))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to change task status")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// AssignTask handles POST /tasks/{id}/assign.
func (h *TaskHandler) AssignTask(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req AssignTaskRequest
	if !decode(w, r, &req) {
		return
	}

	task, err := h.tasks.AssignTask(r.Context(), actor, service.ManualAssignment{
		TaskID:           taskID,
		StaffID:          uuid.MustParse(req.StaffID),
		EstimatedMinutes: req.EstimatedMinutes,
		Priority:         priorityPtr(req.Priority),
		Notes:            req.Notes,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to assign task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// HandoffTask handles POST /tasks/{id}/handoff.
func (h *TaskHandler) HandoffTask(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req HandoffRequest
	if !decode(w, r, &req) {
		return
	}

	task, err := h.tasks.HandoffTask(r.Context(), actor, taskID, uuid.MustParse(req.StaffID), req.Reason)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to hand off task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}
