// Package memory provides goroutine-safe in-memory implementations of the
// store contracts. They honor the same compare-and-swap semantics as the
// Postgres stores and back unit tests and local development.
package memory
