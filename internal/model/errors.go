package model

import "errors"

// ErrorKind is the canonical error taxonomy for this module. It lets
// callers discriminate failure classes with errors.As without depending on
// brittle string matching against error text.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindSession       ErrorKind = "session"
	KindTask          ErrorKind = "task"
	KindExecutor      ErrorKind = "executor"
	KindEvidence      ErrorKind = "evidence"
	KindLocks         ErrorKind = "locks"
	KindCompletion    ErrorKind = "completion_protocol"
	KindSafety        ErrorKind = "safety"
)

// KindError wraps an underlying error with its canonical kind.
type KindError struct {
	Kind ErrorKind
	Err  error
}

func (e *KindError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *KindError) Unwrap() error { return e.Err }

// NewKindError constructs a KindError that wraps err with %w semantics.
func NewKindError(kind ErrorKind, err error) *KindError {
	return &KindError{Kind: kind, Err: err}
}

// IsKind reports whether err (or any error it wraps) carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind == kind
	}
	return false
}

// Sentinel errors for specific, frequently-checked conditions in the
// error taxonomy above.
var (
	ErrPhaseTransitionInvalid = errors.New("PHASE_TRANSITION_INVALID")
	ErrProjectPathInvalid     = errors.New("PROJECT_PATH_INVALID")
	ErrExecutorLimitExceeded  = errors.New("EXECUTOR_LIMIT_EXCEEDED")
	ErrStaleRun               = errors.New("stale run id")
	ErrLockConflict           = errors.New("lock acquisition conflict")
	ErrLockAutoReleaseAttempt = errors.New("attempted auto-release of file lock on expiry")
)
