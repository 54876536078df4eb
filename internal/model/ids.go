// Package model defines the core data types shared by every pmrun
// subsystem: sessions, tasks, executor results, evidence, locks, and the
// logging entity tree. Types are identified by opaque string ids rather
// than pointers so that cyclic references (Session -> Task -> Evidence ->
// Session) can be stored and serialized without graph cycles.
package model

import "github.com/google/uuid"

// NewID returns a fresh random identifier suitable for any entity in this
// package (Session, Task, Evidence, FileLock, Run, TaskLog).
func NewID() string {
	return uuid.NewString()
}
