// Package events carries task lifecycle notifications from the services to
// whatever broadcasts them (real-time push, notifications, audit sinks).
//
// Services emit events after a mutation has committed. Emission failures are
// logged by the caller and never undo the mutation.
package events
