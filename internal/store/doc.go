// Package store defines the persistence contracts for tasks, guest service
// requests, and the read-only staff and stay directories.
//
// Every status or assignment write goes through CompareAndSwap, keyed on the
// entity's Version. Implementations must apply the write only if the stored
// version still equals the expected one, and must bump the version on
// success. A lost race is reported as ErrConflict and leaves storage
// untouched.
package store
