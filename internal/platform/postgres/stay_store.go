package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// PostgresStayStore implements store.StayStore over check_in_outs.
type PostgresStayStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStayStore creates a stay store backed by PostgreSQL.
func NewPostgresStayStore(db store.DBTX, logger *slog.Logger) *PostgresStayStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStayStore{
		db:     db,
		logger: logger.With(slog.String("component", "stay_store")),
	}
}

var _ store.StayStore = (*PostgresStayStore)(nil)

// Put inserts or replaces a check-in row.
func (s *PostgresStayStore) Put(ctx context.Context, stay *domain.CheckIn) error {
	var expected sql.NullTime
	if !stay.ExpectedCheckOut.IsZero() {
		expected = sql.NullTime{Time: stay.ExpectedCheckOut, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO check_in_outs
			(id, guest_id, room_id, room_number, booking_id, status, checked_in_at, expected_check_out)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			room_id = EXCLUDED.room_id,
			room_number = EXCLUDED.room_number,
			expected_check_out = EXCLUDED.expected_check_out
	`, stay.ID, stay.GuestID, stay.RoomID, stay.RoomNumber, stay.BookingID,
		string(stay.Status), stay.CheckedInAt, expected)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to upsert check-in",
			slog.String("error", err.Error()),
			slog.String("check_in_id", stay.ID.String()))
		return MapError(err)
	}
	return nil
}

// FindActiveCheckIn implements store.StayStore.FindActiveCheckIn.
// The most recent checked-in stay wins.
func (s *PostgresStayStore) FindActiveCheckIn(ctx context.Context, guestID uuid.UUID) (*domain.CheckIn, error) {
	var (
		stay     domain.CheckIn
		status   string
		expected sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, guest_id, room_id, room_number, booking_id, status, checked_in_at, expected_check_out
		FROM check_in_outs
		WHERE guest_id = $1 AND status = 'checked_in'
		ORDER BY checked_in_at DESC
		LIMIT 1
	`, guestID).Scan(
		&stay.ID,
		&stay.GuestID,
		&stay.RoomID,
		&stay.RoomNumber,
		&stay.BookingID,
		&status,
		&stay.CheckedInAt,
		&expected,
	)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrCheckInNotFound
		}
		return nil, MapError(err)
	}

	stay.Status = domain.CheckInStatus(status)
	stay.CheckedInAt = stay.CheckedInAt.UTC()
	if expected.Valid {
		stay.ExpectedCheckOut = expected.Time.UTC()
	}
	return &stay, nil
}
