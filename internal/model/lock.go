package model

import "time"

// LockType distinguishes readers from writers. Multiple READ locks on the
// same path may coexist; a WRITE lock is exclusive.
type LockType string

const (
	LockRead  LockType = "READ"
	LockWrite LockType = "WRITE"
)

// FileLock records one executor's claim on a file path.
//
// ExpiresAt is informational only — it exists so callers can surface
// "this lock looks stale" to an operator, never so the manager can release
// it on their behalf. Auto-release on expiry is a hard non-goal: attempting
// it is itself a reportable integrity failure (see ErrLockAutoReleaseAttempt).
type FileLock struct {
	ID               string    `json:"id"`
	FilePath         string    `json:"file_path"`
	HolderExecutorID string    `json:"holder_executor_id"`
	Type             LockType  `json:"type"`
	AcquiredAt       time.Time `json:"acquired_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// NewFileLock stamps a fresh lock id and acquisition time.
func NewFileLock(filePath, holderExecutorID string, lockType LockType, ttl time.Duration) *FileLock {
	now := time.Now()
	return &FileLock{
		ID:               NewID(),
		FilePath:         filePath,
		HolderExecutorID: holderExecutorID,
		Type:             lockType,
		AcquiredAt:       now,
		ExpiresAt:        now.Add(ttl),
	}
}

// Conflicts reports whether a lock of type other on the same path held by a
// different executor must be denied. Two READ locks never conflict; a WRITE
// against anything held by another executor always does.
func (l *FileLock) Conflicts(other LockType, executorID string) bool {
	if l.HolderExecutorID == executorID {
		return false
	}
	if l.Type == LockRead && other == LockRead {
		return false
	}
	return true
}
