// Package domain contains the core business entities of the hotel operations
// backend: staff tasks, guest service requests, the staff directory entries
// they are assigned to, and the stay records requests are raised under.
//
// Everything in this package is pure. Functions that depend on the current
// time take it as an argument so callers control the clock.
package domain
