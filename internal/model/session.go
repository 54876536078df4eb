package model

import "time"

// SessionStatus is the aggregate status of a Session, derived from its
// tasks rather than set ad hoc. Priority ordering governs aggregation:
// INVALID > ERROR > NO_EVIDENCE > INCOMPLETE > COMPLETE.
type SessionStatus string

const (
	SessionInvalid    SessionStatus = "INVALID"
	SessionError      SessionStatus = "ERROR"
	SessionNoEvidence SessionStatus = "NO_EVIDENCE"
	SessionIncomplete SessionStatus = "INCOMPLETE"
	SessionComplete   SessionStatus = "COMPLETE"
)

// statusPriority maps each status to its precedence in aggregation: lower
// number wins. Mirrors the ordering INVALID > ERROR > NO_EVIDENCE >
// INCOMPLETE > COMPLETE.
var statusPriority = map[SessionStatus]int{
	SessionInvalid:    0,
	SessionError:      1,
	SessionNoEvidence: 2,
	SessionIncomplete: 3,
	SessionComplete:   4,
}

// AggregateStatus derives a Session's status from its tasks' statuses by
// taking the highest-priority (worst) status present. An empty task list
// aggregates to NO_EVIDENCE: a session with nothing to show for itself
// cannot claim completion.
func AggregateStatus(taskStatuses []SessionStatus) SessionStatus {
	if len(taskStatuses) == 0 {
		return SessionNoEvidence
	}
	worst := SessionComplete
	for _, s := range taskStatuses {
		if statusPriority[s] < statusPriority[worst] {
			worst = s
		}
	}
	return worst
}

// Phase is one of the seven ordered lifecycle phases.
type Phase string

const (
	PhaseRequirementAnalysis  Phase = "REQUIREMENT_ANALYSIS"
	PhaseTaskDecomposition    Phase = "TASK_DECOMPOSITION"
	PhasePlanning             Phase = "PLANNING"
	PhaseExecution            Phase = "EXECUTION"
	PhaseQA                   Phase = "QA"
	PhaseCompletionValidation Phase = "COMPLETION_VALIDATION"
	PhaseReport               Phase = "REPORT"
)

// PhaseOrder is the fixed sequence of phases a session must progress
// through. Index position is used to detect skips.
var PhaseOrder = []Phase{
	PhaseRequirementAnalysis,
	PhaseTaskDecomposition,
	PhasePlanning,
	PhaseExecution,
	PhaseQA,
	PhaseCompletionValidation,
	PhaseReport,
}

// Session is one orchestration run.
type Session struct {
	ID                   string        `json:"id"`
	ProjectPath          string        `json:"project_path"`
	StartedAt            time.Time     `json:"started_at"`
	CurrentPhase         Phase         `json:"current_phase"`
	Status               SessionStatus `json:"status"`
	ContinuationApproved bool          `json:"continuation_approved"`
	CompletedPhases      []Phase       `json:"completed_phases"`

	// TaskIDs and EvidenceIDs are inventories of owned entities, stored by
	// id rather than pointer to avoid cyclic references across a
	// marshaled pointer graph.
	TaskIDs     []string `json:"task_ids"`
	EvidenceIDs []string `json:"evidence_ids"`
}

// NewSession constructs a Session in its initial phase.
func NewSession(projectPath string) *Session {
	return &Session{
		ID:           NewID(),
		ProjectPath:  projectPath,
		StartedAt:    time.Now(),
		CurrentPhase: PhaseRequirementAnalysis,
		Status:       SessionNoEvidence,
	}
}
