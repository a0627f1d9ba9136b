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

const staffColumns = `id, name, email, role, department, is_active, is_approved`

// PostgresStaffDirectory implements store.StaffDirectory over the users table.
type PostgresStaffDirectory struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStaffDirectory creates a staff directory backed by PostgreSQL.
func NewPostgresStaffDirectory(db store.DBTX, logger *slog.Logger) *PostgresStaffDirectory {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStaffDirectory{
		db:     db,
		logger: logger.With(slog.String("component", "staff_directory")),
	}
}

var _ store.StaffDirectory = (*PostgresStaffDirectory)(nil)

func scanStaff(row rowScanner) (*domain.Staff, error) {
	var (
		member     domain.Staff
		role       string
		department sql.NullString
	)
	if err := row.Scan(
		&member.ID,
		&member.Name,
		&member.Email,
		&role,
		&department,
		&member.IsActive,
		&member.IsApproved,
	); err != nil {
		return nil, err
	}
	member.Role = domain.Role(role)
	if department.Valid {
		d := domain.Department(department.String)
		member.Department = &d
	}
	return &member, nil
}

// Put inserts or replaces a user row.
func (d *PostgresStaffDirectory) Put(ctx context.Context, member *domain.Staff) error {
	var department sql.NullString
	if member.Department != nil {
		department = sql.NullString{String: string(*member.Department), Valid: true}
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, role, department, is_active, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			department = EXCLUDED.department,
			is_active = EXCLUDED.is_active,
			is_approved = EXCLUDED.is_approved,
			updated_at = NOW()
	`, member.ID, member.Name, member.Email, string(member.Role), department,
		member.IsActive, member.IsApproved)
	if err != nil {
		logger.FromContextOrDefault(ctx, d.logger).Error("failed to upsert user",
			slog.String("error", err.Error()),
			slog.String("user_id", member.ID.String()))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.StaffDirectory.GetByID.
func (d *PostgresStaffDirectory) GetByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error) {
	member, err := scanStaff(d.db.QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrStaffNotFound
		}
		return nil, MapError(err)
	}
	return member, nil
}

// ListEligible implements store.StaffDirectory.ListEligible.
// Rows come back in id order so selection strategies stay deterministic.
func (d *PostgresStaffDirectory) ListEligible(ctx context.Context, dept domain.Department) ([]*domain.Staff, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+staffColumns+`
		FROM users
		WHERE role = 'staff' AND is_active AND is_approved AND department = $1
		ORDER BY id::text
	`, string(dept))
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := []*domain.Staff{}
	for rows.Next() {
		member, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, member)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}
