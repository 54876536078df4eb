package model

import "time"

// TaskStatus mirrors ExecutorResult.Status but lives on the Task itself so
// the lifecycle controller and runner façade can query progress without
// reaching into the last ExecutorResult.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskRunning    TaskStatus = "RUNNING"
	TaskComplete   TaskStatus = "COMPLETE"
	TaskIncomplete TaskStatus = "INCOMPLETE"
	TaskError      TaskStatus = "ERROR"
	TaskNoEvidence TaskStatus = "NO_EVIDENCE"
	TaskBlocked    TaskStatus = "BLOCKED"
)

// IsTerminal reports whether a dependent task may now start: a dependent
// task starts strictly after all its prerequisites have reached a
// terminal status (COMPLETE, INCOMPLETE, ERROR). Notably BLOCKED is not
// terminal — a blocked prerequisite holds its dependents back until
// resolved.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskComplete, TaskIncomplete, TaskError:
		return true
	default:
		return false
	}
}

// Limits bounds a task's resource granularity, as configured in
// pm-orchestrator.yaml.
type Limits struct {
	MaxFiles   int `json:"max_files"`
	MaxTests   int `json:"max_tests"`
	MaxSeconds int `json:"max_seconds"`
}

// DefaultLimits returns the built-in fallback limits.
func DefaultLimits() Limits {
	return Limits{MaxFiles: 5, MaxTests: 10, MaxSeconds: 300}
}

// Task is a unit of work with a natural-language prompt.
type Task struct {
	ID       string   `json:"id"`
	SessionID string  `json:"session_id"`
	Prompt   string   `json:"prompt"`
	Type     TaskType `json:"type"`
	Limits   Limits   `json:"limits"`
	Status   TaskStatus `json:"status"`

	// EvidenceIDs and FilesModified track what the task produced; stored by
	// id, not by pointer (see Session doc comment).
	EvidenceIDs   []string `json:"evidence_ids"`
	FilesModified []string `json:"files_modified"`

	// TestsRequiredBeforeImplementation captures whether tests must exist
	// before implementation work begins.
	TestsRequiredBeforeImplementation bool `json:"tests_required_before_implementation"`

	// ParentTaskID and SubtaskIDs form a shallow tree (depth rarely > 2).
	ParentTaskID string   `json:"parent_task_id,omitempty"`
	SubtaskIDs   []string `json:"subtask_ids,omitempty"`

	// DependencyIDs are other task ids that must reach a terminal status
	// before this task may start.
	DependencyIDs []string `json:"dependency_ids,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewTask constructs a pending Task with default limits and a fresh id.
func NewTask(sessionID, prompt string, taskType TaskType) *Task {
	return &Task{
		ID:        NewID(),
		SessionID: sessionID,
		Prompt:    prompt,
		Type:      taskType,
		Limits:    DefaultLimits(),
		Status:    TaskPending,
		CreatedAt: time.Now(),
	}
}
