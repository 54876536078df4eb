package model

import (
	"strings"
	"time"
)

// ChunkStream names which channel an ExecutorOutputChunk came from. Beyond
// the obvious stdout/stderr, the supervisor and guard also emit chunks on
// their own synthetic streams so a subscriber sees the whole story — spawn
// events, preflight gate decisions, guard interventions, and supervisor
// state transitions — without needing a second channel.
type ChunkStream string

const (
	StreamStdout    ChunkStream = "stdout"
	StreamStderr    ChunkStream = "stderr"
	StreamSystem    ChunkStream = "system"
	StreamSpawn     ChunkStream = "spawn"
	StreamPreflight ChunkStream = "preflight"
	StreamGuard     ChunkStream = "guard"
	StreamState     ChunkStream = "state"
	StreamError     ChunkStream = "error"
)

// ExecutorOutputChunk is one unit of the live stream a subscriber (display,
// tasklog writer, web UI) consumes while an executor runs. Chunks are
// ordered within (TaskID, SessionID) by Sequence, a monotonic counter that
// stream.Stream assigns on Publish — not by Timestamp, since clock resolution can collide
// under fast output.
type ExecutorOutputChunk struct {
	Timestamp time.Time   `json:"timestamp"`
	TaskID    string      `json:"task_id"`
	SessionID string      `json:"session_id"`
	ProjectID string      `json:"project_id,omitempty"`
	Stream    ChunkStream `json:"stream"`
	Text      string      `json:"text"`
	Sequence  int         `json:"sequence"`
}

// stalenessMarkers are substrings the executor itself writes into its own
// output when it recognizes work left over from a run that no longer
// exists — evidence the chunk describes a prior session, not this one,
// even when its (taskID, sessionID) tag was stamped correctly upstream.
var stalenessMarkers = []string{
	"previous session",
	"already cleaned up",
}

// IsStaleFor reports whether c belongs to a different (taskID, sessionID)
// pair than the one a subscriber has filtered on, predates minCreatedAt, or
// carries a staleness marker in its text. Missing filter context is treated
// as stale — fail closed rather than leak chunks across tasks.
func (c ExecutorOutputChunk) IsStaleFor(taskID, sessionID string, minCreatedAt time.Time) bool {
	if taskID == "" || sessionID == "" {
		return true
	}
	if c.TaskID != taskID || c.SessionID != sessionID {
		return true
	}
	if !minCreatedAt.IsZero() && c.Timestamp.Before(minCreatedAt) {
		return true
	}
	return c.hasStalenessMarker()
}

func (c ExecutorOutputChunk) hasStalenessMarker() bool {
	lower := strings.ToLower(c.Text)
	for _, marker := range stalenessMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
