package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// placeholders returns "$1, $2, ..., $n".
func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}

// setClause renders "col = $i" for every column but the first (the key),
// numbering placeholders to match an argument list in column order.
func setClause(columns []string) string {
	parts := make([]string, 0, len(columns)-1)
	for i, col := range columns[1:] {
		parts = append(parts, fmt.Sprintf("%s = $%d", col, i+2))
	}
	return strings.Join(parts, ", ")
}

// filterBuilder accumulates WHERE conditions with numbered placeholders.
type filterBuilder struct {
	conds []string
	args  []any
}

// add appends cond, whose single %d is replaced by the next placeholder index.
func (b *filterBuilder) add(cond string, arg any) {
	b.args = append(b.args, arg)
	b.conds = append(b.conds, fmt.Sprintf(cond, len(b.args)))
}

// where renders the WHERE clause, or "" when there are no conditions.
func (b *filterBuilder) where() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// page renders LIMIT/OFFSET for positive values.
func (b *filterBuilder) page(limit, offset int) string {
	var out string
	if limit > 0 {
		b.args = append(b.args, limit)
		out += fmt.Sprintf(" LIMIT $%d", len(b.args))
	}
	if offset > 0 {
		b.args = append(b.args, offset)
		out += fmt.Sprintf(" OFFSET $%d", len(b.args))
	}
	return out
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time.UTC()
	return &t
}

// jsonArg encodes v for a JSONB parameter.
func jsonArg(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeJSON decodes a JSONB column into v, leaving v untouched when the
// column is NULL.
func decodeJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
