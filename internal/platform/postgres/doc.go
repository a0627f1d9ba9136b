// Package postgres implements the internal/store contracts on PostgreSQL
// through database/sql and the pgx driver. Version-checked updates provide
// the compare-and-swap semantics the services rely on, and the schema is
// managed by embedded goose migrations.
package postgres
