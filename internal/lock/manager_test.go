package lock

import (
	"errors"
	"testing"
	"time"

	"github.com/pmrun/pmrun/internal/model"
)

func TestAcquireNonConflictingReads(t *testing.T) {
	m := NewManager()
	if _, err := m.Acquire("a.go", "exec-1", model.LockRead, time.Minute); err != nil {
		t.Fatalf("first READ acquire failed: %v", err)
	}
	if _, err := m.Acquire("a.go", "exec-2", model.LockRead, time.Minute); err != nil {
		t.Fatalf("second READ acquire failed: %v", err)
	}
}

func TestAcquireConflictingWriteRejected(t *testing.T) {
	m := NewManager()
	if _, err := m.Acquire("a.go", "exec-1", model.LockWrite, time.Minute); err != nil {
		t.Fatalf("initial WRITE acquire failed: %v", err)
	}
	_, err := m.Acquire("a.go", "exec-2", model.LockRead, time.Minute)
	if !errors.Is(err, model.ErrLockConflict) {
		t.Fatalf("expected ErrLockConflict, got %v", err)
	}
}

func TestSameExecutorReacquireDoesNotConflict(t *testing.T) {
	m := NewManager()
	if _, err := m.Acquire("a.go", "exec-1", model.LockWrite, time.Minute); err != nil {
		t.Fatalf("initial acquire failed: %v", err)
	}
	if _, err := m.Acquire("a.go", "exec-1", model.LockWrite, time.Minute); err != nil {
		t.Fatalf("same-executor reacquire failed: %v", err)
	}
}

func TestReleaseByNonHolderRefused(t *testing.T) {
	m := NewManager()
	l, err := m.Acquire("a.go", "exec-1", model.LockWrite, time.Minute)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	err = m.Release("a.go", l.ID, "exec-2")
	if !errors.Is(err, model.ErrLockAutoReleaseAttempt) {
		t.Fatalf("expected ErrLockAutoReleaseAttempt, got %v", err)
	}
	if len(m.Holders("a.go")) != 1 {
		t.Fatal("lock was removed despite refused release")
	}
}

func TestReleaseByHolderSucceeds(t *testing.T) {
	m := NewManager()
	l, err := m.Acquire("a.go", "exec-1", model.LockWrite, time.Minute)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := m.Release("a.go", l.ID, "exec-1"); err != nil {
		t.Fatalf("holder release failed: %v", err)
	}
	if len(m.Holders("a.go")) != 0 {
		t.Fatal("lock still present after holder release")
	}
}

func TestExpiredButHeldNeverAutoReleases(t *testing.T) {
	m := NewManager()
	if _, err := m.Acquire("a.go", "exec-1", model.LockWrite, -time.Hour); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	expired := m.ExpiredButHeld(time.Now())
	if len(expired) != 1 {
		t.Fatalf("ExpiredButHeld returned %d entries, want 1", len(expired))
	}
	// The expired lock must still be held — observing expiry must not
	// release it.
	if len(m.Holders("a.go")) != 1 {
		t.Fatal("expired lock was auto-released merely by being observed")
	}
}
