package model

import "time"

// ThreadType classifies a logical line of work within a session.
type ThreadType string

const (
	ThreadMain       ThreadType = "main"
	ThreadBackground ThreadType = "background"
	ThreadSystem     ThreadType = "system"
)

// Thread groups TaskLog entries that belong to the same logical line of
// work, independent of which task produced them.
type Thread struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Type      ThreadType `json:"type"`
	StartedAt time.Time  `json:"started_at"`
}

// RunStatus is a Run's lifecycle: RUNNING moves to exactly one terminal
// status and never back.
type RunStatus string

const (
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
	RunCancelled RunStatus = "CANCELLED"
)

// Run is one attempt at driving a task to completion. QA-gate results must
// be aggregated only within a single Run: results from a prior Run of the
// same task must never be mixed into a fresh one.
type Run struct {
	ID        string     `json:"id"`
	TaskID    string     `json:"task_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Status    RunStatus  `json:"status"`
}

// NewRun starts a Run in RUNNING status.
func NewRun(taskID string) *Run {
	return &Run{ID: NewID(), TaskID: taskID, StartedAt: time.Now(), Status: RunRunning}
}

// Finish transitions a Run to a terminal status exactly once.
func (r *Run) Finish(status RunStatus) {
	if r.Status != RunRunning {
		return
	}
	now := time.Now()
	r.Status = status
	r.EndedAt = &now
}

// EventType is the closed vocabulary of TaskLog entry kinds.
type EventType string

const (
	EventUserInput          EventType = "USER_INPUT"
	EventTaskStarted        EventType = "TASK_STARTED"
	EventTaskCompleted      EventType = "TASK_COMPLETED"
	EventTaskError          EventType = "TASK_ERROR"
	EventLLMMediationBegin  EventType = "LLM_MEDIATION_BEGIN"
	EventLLMMediationResult EventType = "LLM_MEDIATION_RESULT"
	EventExecutorDispatch   EventType = "EXECUTOR_DISPATCH"
	EventExecutorOutput     EventType = "EXECUTOR_OUTPUT"
	EventFileOperation      EventType = "FILE_OPERATION"
	EventTestExecution      EventType = "TEST_EXECUTION"
	EventReviewLoopStart    EventType = "REVIEW_LOOP_START"
	EventReviewLoopVerdict  EventType = "REVIEW_LOOP_VERDICT"
	EventChunkDropped       EventType = "CHUNK_DROPPED"
)

// Visibility controls whether a TaskLog entry is shown in the default
// operator view (summary) or only in a verbose/full transcript render.
type Visibility string

const (
	VisibilitySummary Visibility = "summary"
	VisibilityFull    Visibility = "full"
)

// TaskLog is one append-only entry in a task's transcript. The transcript
// as a whole is reconstructed read-only from a sequence of these entries
// (internal/tasklog), never mutated in place.
type TaskLog struct {
	ID         string     `json:"id"`
	TaskID     string     `json:"task_id"`
	ThreadID   string     `json:"thread_id,omitempty"`
	RunID      string     `json:"run_id,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	Event      EventType  `json:"event"`
	Visibility Visibility `json:"visibility"`
	Text       string     `json:"text,omitempty"`
}

// NewTaskLog stamps a fresh id and timestamp for a log entry.
func NewTaskLog(taskID string, event EventType, visibility Visibility, text string) *TaskLog {
	return &TaskLog{
		ID:         NewID(),
		TaskID:     taskID,
		Timestamp:  time.Now(),
		Event:      event,
		Visibility: visibility,
		Text:       text,
	}
}
