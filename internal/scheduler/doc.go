// Package scheduler runs the periodic sweep that offers stale, unassigned
// tasks to the system assignment path.
package scheduler
