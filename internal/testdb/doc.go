// Package testdb provides utilities for database integration tests.
//
// Tests opt in with the integration build tag and a DATABASE_URL (or
// HOTELOPS_TEST_DB_URL) pointing at a disposable PostgreSQL database.
// Each test runs inside a transaction that is rolled back afterwards.
package testdb
