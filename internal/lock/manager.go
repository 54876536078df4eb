// Package lock implements the process-wide file lock manager. It tracks
// claims by path, not a mutex per file: acquisition is a cooperative
// bookkeeping device for executors that declare which files they intend to
// touch, not an OS-level file lock.
//
// The one invariant the manager must never violate: a lock's ExpiresAt is
// informational only. Nothing in this package releases a lock because it
// looks expired — attempting to is itself a reportable integrity failure
// (model.ErrLockAutoReleaseAttempt).
package lock

import (
	"fmt"
	"sync"
	"time"

	"github.com/pmrun/pmrun/internal/model"
)

// Manager holds the current set of FileLocks, keyed by path.
type Manager struct {
	mu     sync.Mutex
	byPath map[string][]*model.FileLock
}

// NewManager returns an empty lock manager.
func NewManager() *Manager {
	return &Manager{byPath: make(map[string][]*model.FileLock)}
}

// Acquire attempts to take a lock of lockType on path for executorID. It
// never blocks: if an incompatible lock is already held by a different
// executor, Acquire returns model.ErrLockConflict immediately rather than
// queuing.
func (m *Manager) Acquire(path, executorID string, lockType model.LockType, ttl time.Duration) (*model.FileLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.byPath[path] {
		if existing.Conflicts(lockType, executorID) {
			return nil, model.NewKindError(model.KindLocks,
				fmt.Errorf("%w: path %s held by %s as %s", model.ErrLockConflict, path, existing.HolderExecutorID, existing.Type))
		}
	}

	l := model.NewFileLock(path, executorID, lockType, ttl)
	m.byPath[path] = append(m.byPath[path], l)
	return l, nil
}

// Release removes a lock by id, but only on behalf of its own holder.
// Anyone else attempting to release it — including the manager itself on a
// timer — is refused.
func (m *Manager) Release(path, lockID, executorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	locks := m.byPath[path]
	for i, l := range locks {
		if l.ID != lockID {
			continue
		}
		if l.HolderExecutorID != executorID {
			return model.NewKindError(model.KindLocks,
				fmt.Errorf("%w: executor %s attempted to release lock %s held by %s", model.ErrLockAutoReleaseAttempt, executorID, lockID, l.HolderExecutorID))
		}
		m.byPath[path] = append(locks[:i], locks[i+1:]...)
		if len(m.byPath[path]) == 0 {
			delete(m.byPath, path)
		}
		return nil
	}
	return model.NewKindError(model.KindLocks, fmt.Errorf("no lock %s held on %s", lockID, path))
}

// Holders returns the locks currently held on path, for diagnostics and for
// surfacing "this lock looks stale" to an operator without ever acting on
// that observation automatically.
func (m *Manager) Holders(path string) []*model.FileLock {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.FileLock, len(m.byPath[path]))
	copy(out, m.byPath[path])
	return out
}

// ExpiredButHeld reports which currently-held locks have an ExpiresAt in
// the past, as of now. This exists purely for observability — callers may
// surface it to an operator — and must never be used to auto-release.
func (m *Manager) ExpiredButHeld(now time.Time) []*model.FileLock {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.FileLock
	for _, locks := range m.byPath {
		for _, l := range locks {
			if now.After(l.ExpiresAt) {
				out = append(out, l)
			}
		}
	}
	return out
}
