package model

import "time"

// Judgment is the Review Loop's per-iteration verdict.
type Judgment string

const (
	JudgmentPass   Judgment = "PASS"
	JudgmentReject Judgment = "REJECT"
	JudgmentRetry  Judgment = "RETRY"
)

// CriterionID names one of the six deterministic quality criteria.
type CriterionID string

const (
	CriterionFilesVerified      CriterionID = "Q1"
	CriterionNoTodoFixme        CriterionID = "Q2"
	CriterionNoOmissionMarkers  CriterionID = "Q3"
	CriterionNoIncompleteSyntax CriterionID = "Q4"
	CriterionEvidencePresent    CriterionID = "Q5"
	CriterionNoEarlyTermination CriterionID = "Q6"
)

// CriterionResult is the outcome of one quality criterion on one iteration.
type CriterionResult struct {
	ID     CriterionID `json:"id"`
	Passed bool        `json:"passed"`
	Detail string      `json:"detail,omitempty"`
}

// RejectionDetails summarizes why an iteration was rejected, feeding the
// modification prompt assembler.
type RejectionDetails struct {
	FailedCriteria []CriterionResult `json:"failed_criteria"`
	Summary        string            `json:"summary"`
}

// IterationRecord is one pass through the Review Loop.
type IterationRecord struct {
	Iteration        int               `json:"iteration"`
	StartedAt        time.Time         `json:"started_at"`
	EndedAt          time.Time         `json:"ended_at"`
	Judgment         Judgment          `json:"judgment"`
	CriteriaResults  []CriterionResult `json:"criteria_results"`
	RejectionDetails *RejectionDetails `json:"rejection_details,omitempty"`
}

// ReviewFinalStatus is the Review Loop's terminal verdict once iteration
// stops (PASS, or max-iterations reached).
type ReviewFinalStatus string

const (
	ReviewFinalComplete   ReviewFinalStatus = "COMPLETE"
	ReviewFinalIncomplete ReviewFinalStatus = "INCOMPLETE"
	ReviewFinalError      ReviewFinalStatus = "ERROR"
)

// ReviewResult is the Review Loop's complete output for one task.
type ReviewResult struct {
	Iterations  []IterationRecord `json:"iterations"`
	FinalStatus ReviewFinalStatus `json:"final_status"`
	LastResult  *ExecutorResult   `json:"last_result,omitempty"`
}
