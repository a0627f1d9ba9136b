package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// taskColumnList is the tasks column order shared by inserts, updates and
// scans. The key must stay first.
var taskColumnList = []string{
	"id", "title", "description", "department", "category", "priority", "status",
	"assigned_to", "assigned_by", "assigned_at", "assignment_source", "created_by",
	"attachments", "estimated_minutes", "notes", "status_history", "assignment_history",
	"last_status_change", "accepted_by", "accepted_at", "completed_at",
	"origin_kind", "origin_request_id", "is_active",
	"requested_at", "created_at", "updated_at", "version",
}

var taskColumns = strings.Join(taskColumnList, ", ")

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// taskArgs returns the column values of task in taskColumnList order.
func taskArgs(task *domain.Task) ([]any, error) {
	attachments, err := jsonArg(task.Attachments)
	if err != nil {
		return nil, fmt.Errorf("encode attachments: %w", err)
	}
	statusHistory, err := jsonArg(task.StatusHistory)
	if err != nil {
		return nil, fmt.Errorf("encode status history: %w", err)
	}
	assignmentHistory, err := jsonArg(task.AssignmentHistory)
	if err != nil {
		return nil, fmt.Errorf("encode assignment history: %w", err)
	}

	var originRequest uuid.NullUUID
	if id, ok := task.Origin.RequestID(); ok {
		originRequest = uuid.NullUUID{UUID: id, Valid: true}
	}

	return []any{
		task.ID,
		task.Title,
		task.Description,
		string(task.Department),
		task.Category,
		string(task.Priority),
		string(task.Status),
		nullUUID(task.AssignedTo),
		nullUUID(task.AssignedBy),
		nullTime(task.AssignedAt),
		string(task.AssignmentSource),
		task.CreatedBy,
		attachments,
		task.EstimatedMinutes,
		task.Notes,
		statusHistory,
		assignmentHistory,
		nullTime(task.LastStatusChange),
		nullUUID(task.AcceptedBy),
		nullTime(task.AcceptedAt),
		nullTime(task.CompletedAt),
		string(task.Origin.Kind()),
		originRequest,
		task.IsActive,
		task.RequestedAt,
		task.CreatedAt,
		task.UpdatedAt,
		task.Version,
	}, nil
}

// scanTask reads one row selected with taskColumns.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task                                    domain.Task
		department, priority, status            string
		source, originKind                      string
		assignedTo, assignedBy, acceptedBy      uuid.NullUUID
		originRequest                           uuid.NullUUID
		assignedAt, lastChange                  sql.NullTime
		acceptedAt, completedAt                 sql.NullTime
		attachments, statusHist, assignmentHist []byte
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&department,
		&task.Category,
		&priority,
		&status,
		&assignedTo,
		&assignedBy,
		&assignedAt,
		&source,
		&task.CreatedBy,
		&attachments,
		&task.EstimatedMinutes,
		&task.Notes,
		&statusHist,
		&assignmentHist,
		&lastChange,
		&acceptedBy,
		&acceptedAt,
		&completedAt,
		&originKind,
		&originRequest,
		&task.IsActive,
		&task.RequestedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.Version,
	)
	if err != nil {
		return nil, err
	}

	task.Department = domain.Department(department)
	task.Priority = domain.Priority(priority)
	task.Status = domain.TaskStatus(status)
	task.AssignmentSource = domain.AssignmentSource(source)
	task.AssignedTo = uuidPtr(assignedTo)
	task.AssignedBy = uuidPtr(assignedBy)
	task.AcceptedBy = uuidPtr(acceptedBy)
	task.AssignedAt = timePtr(assignedAt)
	task.LastStatusChange = timePtr(lastChange)
	task.AcceptedAt = timePtr(acceptedAt)
	task.CompletedAt = timePtr(completedAt)
	task.RequestedAt = task.RequestedAt.UTC()
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()

	task.Attachments = []string{}
	task.StatusHistory = []domain.StatusChange{}
	task.AssignmentHistory = []domain.AssignmentRecord{}
	if err := decodeJSON(attachments, &task.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	if err := decodeJSON(statusHist, &task.StatusHistory); err != nil {
		return nil, fmt.Errorf("decode status history: %w", err)
	}
	if err := decodeJSON(assignmentHist, &task.AssignmentHistory); err != nil {
		return nil, fmt.Errorf("decode assignment history: %w", err)
	}

	switch domain.OriginKind(originKind) {
	case domain.OriginGuestRequest:
		if !originRequest.Valid {
			return nil, fmt.Errorf("task %s has guest_request origin without a request id", task.ID)
		}
		task.Origin = domain.FromGuestRequest(originRequest.UUID)
	case domain.OriginDirect:
		task.Origin = domain.DirectOrigin()
	default:
		return nil, fmt.Errorf("task %s has unknown origin kind %q", task.ID, originKind)
	}
	return &task, nil
}

// queryTasks runs query and scans every row.
func (s *PostgresTaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return tasks, nil
}

// Create implements store.TaskStore.Create.
// It validates and inserts the task with version 1.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	task.Version = 1
	args, err := taskArgs(task)
	if err != nil {
		return err
	}

	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (` + placeholders(len(taskColumnList)) + `)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return store.NewStoreError("task", "create", "insert failed", MapError(err))
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("origin", task.Origin.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}
	return task, nil
}

// List implements store.TaskStore.List.
// Results are ordered newest first.
func (s *PostgresTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	var b filterBuilder
	if filter.Status != nil {
		b.add("status = $%d", string(*filter.Status))
	}
	if filter.Department != nil {
		b.add("department = $%d", string(*filter.Department))
	}
	if filter.AssignedTo != nil {
		b.add("assigned_to = $%d", *filter.AssignedTo)
	}
	if filter.OriginRequestID != nil {
		b.add("origin_request_id = $%d", *filter.OriginRequestID)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks` + b.where() +
		` ORDER BY created_at DESC, id` + b.page(filter.Limit, filter.Offset)
	return s.queryTasks(ctx, query, b.args...)
}

// ListByOrigin implements store.TaskStore.ListByOrigin.
func (s *PostgresTaskStore) ListByOrigin(ctx context.Context, requestID uuid.UUID) ([]*domain.Task, error) {
	return s.List(ctx, store.TaskFilter{OriginRequestID: &requestID})
}

// ListStaleUnassigned implements store.TaskStore.ListStaleUnassigned.
func (s *PostgresTaskStore) ListStaleUnassigned(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Task, error) {
	var b filterBuilder
	b.conds = append(b.conds, "status = 'pending'", "assigned_to IS NULL", "is_active")
	b.add("requested_at <= $%d", cutoff)

	query := `SELECT ` + taskColumns + ` FROM tasks` + b.where() +
		` ORDER BY requested_at, id` + b.page(limit, 0)
	return s.queryTasks(ctx, query, b.args...)
}

// CountActiveByAssignee implements store.TaskStore.CountActiveByAssignee.
func (s *PostgresTaskStore) CountActiveByAssignee(ctx context.Context, staffIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(staffIDs))
	if len(staffIDs) == 0 {
		return counts, nil
	}
	ids := make([]string, len(staffIDs))
	for i, id := range staffIDs {
		counts[id] = 0
		ids[i] = id.String()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT assigned_to, COUNT(*)
		FROM tasks
		WHERE assigned_to = ANY($1::uuid[])
		  AND status IN ('assigned', 'in_progress')
		GROUP BY assigned_to
	`, ids)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			id    uuid.UUID
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return counts, nil
}

// CompareAndSwap implements store.TaskStore.CompareAndSwap.
// The update only lands if the stored version still equals expectedVersion.
func (s *PostgresTaskStore) CompareAndSwap(ctx context.Context, task *domain.Task, expectedVersion int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	next := *task
	next.Version = expectedVersion + 1
	args, err := taskArgs(&next)
	if err != nil {
		return err
	}
	args = append(args, expectedVersion)

	query := `UPDATE tasks SET ` + setClause(taskColumnList) +
		fmt.Sprintf(` WHERE id = $1 AND version = $%d`, len(args))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrConflict); err != nil {
		if !store.IsConflictError(err) {
			return err
		}
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, task.ID,
		).Scan(&exists); err != nil {
			return MapError(err)
		}
		if !exists {
			return store.ErrTaskNotFound
		}
		log.Debug("task version moved, update rejected",
			slog.String("task_id", task.ID.String()),
			slog.Int("expected_version", expectedVersion))
		return store.NewStoreError("task", "compare_and_swap",
			fmt.Sprintf("expected version %d", expectedVersion), store.ErrConflict)
	}

	task.Version = next.Version
	return nil
}

// Delete implements store.TaskStore.Delete.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}
