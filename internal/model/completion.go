package model

import "time"

// FailingTestScope tags a failing test as belonging to the task's own
// scope or to something external the runner cannot fix in-place. Both
// scopes block COMPLETE — the tag is for reporting, not leniency.
type FailingTestScope string

const (
	ScopeInScope    FailingTestScope = "IN_SCOPE"
	ScopeOutOfScope FailingTestScope = "OUT_OF_SCOPE"
)

// FailingTest is one test failure extracted from a gate's raw output.
type FailingTest struct {
	Name      string           `json:"name"`
	Scope     FailingTestScope `json:"scope"`
	Truncated bool             `json:"truncated,omitempty"`
}

// QAGateResult is one named quality gate's outcome (lint, test, typecheck,
// build, ...), carrying the run_id that ties it to a specific invocation.
type QAGateResult struct {
	Name         string        `json:"name"`
	RunID        string        `json:"run_id"`
	FailingCount int           `json:"failing_count"`
	SkippedCount int           `json:"skipped_count"`
	FailingTests []FailingTest `json:"failing_tests,omitempty"`
	RawOutput    string        `json:"raw_output,omitempty"`
}

// FinalStatus is the Completion Protocol's verdict vocabulary — distinct
// from ExecutorStatus and TaskStatus, since only this component may
// pronounce COMPLETE across a set of gates.
type FinalStatus string

const (
	FinalStatusComplete   FinalStatus = "COMPLETE"
	FinalStatusFailing    FinalStatus = "FAILING"
	FinalStatusNoEvidence FinalStatus = "NO_EVIDENCE"
)

// CompletionVerdict is the Completion Protocol's sole output shape.
type CompletionVerdict struct {
	FinalStatus  FinalStatus    `json:"final_status"`
	AllPass      bool           `json:"all_pass"`
	FailingTotal int            `json:"failing_total"`
	SkippedTotal int            `json:"skipped_total"`
	FailingGates []string       `json:"failing_gates"`
	GateSummary  []QAGateResult `json:"gate_summary"`
	RunID        string         `json:"run_id,omitempty"`
	JudgedAt     time.Time      `json:"judged_at"`
	StaleResults []QAGateResult `json:"stale_results,omitempty"`
}
