// Package ciutil detects CI environments and resolves the database URL used
// by integration tests.
package ciutil
