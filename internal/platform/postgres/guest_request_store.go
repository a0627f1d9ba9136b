package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

var requestColumnList = []string{
	"id", "guest_id", "room_id", "room_number", "booking_id", "check_in_out_id",
	"request_type", "title", "description", "priority", "status",
	"assigned_to", "assigned_at", "completed_at", "feedback", "notes",
	"is_anonymous", "requires_follow_up", "created_at", "updated_at", "version",
}

var requestColumns = strings.Join(requestColumnList, ", ")

// PostgresGuestRequestStore implements store.GuestRequestStore on the
// guest_service_requests table.
type PostgresGuestRequestStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGuestRequestStore creates a new PostgreSQL implementation of the GuestRequestStore interface.
func NewPostgresGuestRequestStore(db store.DBTX, logger *slog.Logger) *PostgresGuestRequestStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresGuestRequestStore{
		db:     db,
		logger: logger.With(slog.String("component", "guest_request_store")),
	}
}

var _ store.GuestRequestStore = (*PostgresGuestRequestStore)(nil)

func requestArgs(req *domain.GuestServiceRequest) ([]any, error) {
	var feedback sql.NullString
	if req.Feedback != nil {
		encoded, err := jsonArg(req.Feedback)
		if err != nil {
			return nil, fmt.Errorf("encode feedback: %w", err)
		}
		feedback = sql.NullString{String: encoded, Valid: true}
	}

	return []any{
		req.ID,
		nullUUID(req.GuestID),
		req.RoomID,
		req.RoomNumber,
		req.BookingID,
		req.CheckInOutID,
		string(req.RequestType),
		req.Title,
		req.Description,
		string(req.Priority),
		string(req.Status),
		nullUUID(req.AssignedTo),
		nullTime(req.AssignedAt),
		nullTime(req.CompletedAt),
		feedback,
		req.Notes,
		req.IsAnonymous,
		req.RequiresFollowUp,
		req.CreatedAt,
		req.UpdatedAt,
		req.Version,
	}, nil
}

func scanRequest(row rowScanner) (*domain.GuestServiceRequest, error) {
	var (
		req                     domain.GuestServiceRequest
		requestType             string
		priority, status        string
		guestID, assignedTo     uuid.NullUUID
		assignedAt, completedAt sql.NullTime
		feedback                []byte
	)

	err := row.Scan(
		&req.ID,
		&guestID,
		&req.RoomID,
		&req.RoomNumber,
		&req.BookingID,
		&req.CheckInOutID,
		&requestType,
		&req.Title,
		&req.Description,
		&priority,
		&status,
		&assignedTo,
		&assignedAt,
		&completedAt,
		&feedback,
		&req.Notes,
		&req.IsAnonymous,
		&req.RequiresFollowUp,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.Version,
	)
	if err != nil {
		return nil, err
	}

	req.RequestType = domain.RequestType(requestType)
	req.Priority = domain.Priority(priority)
	req.Status = domain.RequestStatus(status)
	req.GuestID = uuidPtr(guestID)
	req.AssignedTo = uuidPtr(assignedTo)
	req.AssignedAt = timePtr(assignedAt)
	req.CompletedAt = timePtr(completedAt)
	req.CreatedAt = req.CreatedAt.UTC()
	req.UpdatedAt = req.UpdatedAt.UTC()

	if len(feedback) > 0 {
		req.Feedback = &domain.Feedback{}
		if err := decodeJSON(feedback, req.Feedback); err != nil {
			return nil, fmt.Errorf("decode feedback: %w", err)
		}
		req.Feedback.SubmittedAt = req.Feedback.SubmittedAt.UTC()
	}
	return &req, nil
}

// Create implements store.GuestRequestStore.Create.
func (s *PostgresGuestRequestStore) Create(ctx context.Context, req *domain.GuestServiceRequest) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := req.Validate(); err != nil {
		log.Warn("guest request validation failed during create",
			slog.String("error", err.Error()),
			slog.String("request_id", req.ID.String()))
		return err
	}

	req.Version = 1
	args, err := requestArgs(req)
	if err != nil {
		return err
	}

	query := `INSERT INTO guest_service_requests (` + requestColumns + `) VALUES (` +
		placeholders(len(requestColumnList)) + `)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to create guest request",
			slog.String("error", err.Error()),
			slog.String("request_id", req.ID.String()))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.GuestRequestStore.GetByID.
func (s *PostgresGuestRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GuestServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM guest_service_requests WHERE id = $1`
	req, err := scanRequest(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrGuestRequestNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get guest request by ID",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()))
		return nil, MapError(err)
	}
	return req, nil
}

// List implements store.GuestRequestStore.List.
func (s *PostgresGuestRequestStore) List(
	ctx context.Context,
	filter store.RequestFilter,
) ([]*domain.GuestServiceRequest, error) {
	var b filterBuilder
	if filter.Status != nil {
		b.add("status = $%d", string(*filter.Status))
	}
	if filter.RoomNumber != "" {
		b.add("room_number = $%d", filter.RoomNumber)
	}
	if filter.GuestID != nil {
		b.add("guest_id = $%d", *filter.GuestID)
	}

	query := `SELECT ` + requestColumns + ` FROM guest_service_requests` + b.where() +
		` ORDER BY created_at DESC, id` + b.page(filter.Limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := []*domain.GuestServiceRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

// CompareAndSwap implements store.GuestRequestStore.CompareAndSwap.
func (s *PostgresGuestRequestStore) CompareAndSwap(
	ctx context.Context,
	req *domain.GuestServiceRequest,
	expectedVersion int,
) error {
	if err := req.Validate(); err != nil {
		return err
	}

	next := *req
	next.Version = expectedVersion + 1
	args, err := requestArgs(&next)
	if err != nil {
		return err
	}
	args = append(args, expectedVersion)

	query := `UPDATE guest_service_requests SET ` + setClause(requestColumnList) +
		fmt.Sprintf(` WHERE id = $1 AND version = $%d`, len(args))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update guest request",
			slog.String("error", err.Error()),
			slog.String("request_id", req.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrConflict); err != nil {
		if !store.IsConflictError(err) {
			return err
		}
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM guest_service_requests WHERE id = $1)`, req.ID,
		).Scan(&exists); err != nil {
			return MapError(err)
		}
		if !exists {
			return store.ErrGuestRequestNotFound
		}
		return store.NewStoreError("guest_request", "compare_and_swap",
			fmt.Sprintf("expected version %d", expectedVersion), store.ErrConflict)
	}

	req.Version = next.Version
	return nil
}
