package runner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pmrun/pmrun/internal/completion"
	"github.com/pmrun/pmrun/internal/lifecycle"
	"github.com/pmrun/pmrun/internal/model"
	"github.com/pmrun/pmrun/internal/stream"
)

// ExitCode is the façade's process-exit vocabulary: the only four values a
// `pmrun run` invocation may exit with.
type ExitCode int

const (
	ExitComplete   ExitCode = 0
	ExitError      ExitCode = 1
	ExitIncomplete ExitCode = 2 // also covers NO_EVIDENCE
	ExitInvalid    ExitCode = 3
)

// ExitCodeFor maps a session's aggregate status to the façade's exit
// vocabulary. NO_EVIDENCE collapses into the same exit code as INCOMPLETE —
// both mean "the run did not produce a verdict an operator can act on
// without looking deeper" — while INVALID gets its own code since it
// signals a lifecycle contract violation, not merely unfinished work.
func ExitCodeFor(status model.SessionStatus) ExitCode {
	switch status {
	case model.SessionComplete:
		return ExitComplete
	case model.SessionError:
		return ExitError
	case model.SessionIncomplete, model.SessionNoEvidence:
		return ExitIncomplete
	default: // model.SessionInvalid, and any status the mapping doesn't know
		return ExitInvalid
	}
}

// Config configures a Runner's scheduling and phase-recording behavior.
type Config struct {
	// Concurrency bounds how many tasks may execute at once; <= 0 means 1.
	Concurrency int
}

// Runner is the façade: it owns a session's lifecycle controller, drives
// its task graph through a TaskRunner (normally a review.Loop wrapping an
// executor.Executor), and renders a CompletionVerdict and exit code from
// the result.
type Runner struct {
	cfg        Config
	taskRunner TaskRunner
	strm       *stream.Stream
	session    *model.Session
	controller *lifecycle.Controller
	now        func() time.Time
}

// New constructs a Runner over session, driving tasks through taskRunner
// and publishing their output to strm (may be nil). recorder persists
// phase evidence as the lifecycle controller advances; pass nil only in
// tests that don't care about persistence.
func New(session *model.Session, recorder lifecycle.Recorder, taskRunner TaskRunner, strm *stream.Stream, cfg Config) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Runner{
		cfg:        cfg,
		taskRunner: taskRunner,
		strm:       strm,
		session:    session,
		controller: lifecycle.New(session, recorder),
		now:        time.Now,
	}
}

// Result is the façade's complete output for one session run.
type Result struct {
	Session        *model.Session
	Tasks          map[string]*model.Task
	ReviewResults  map[string]*model.ReviewResult
	ExecutionOrder []string
	Verdict        *model.CompletionVerdict
	ExitCode       ExitCode
}

// Run decomposes, plans, executes, and judges tasks against the session's
// seven-phase lifecycle, returning the full result. Each stage's
// PhaseEvidence is derived from the stage's own output, not invented: the
// requirements list is each task's prompt, task_order is the scheduler's
// Kahn's-algorithm ordering, execution_results and gate_results come
// directly from the tasks' review verdicts, and the verdict comes from the
// Completion Protocol's aggregation of those same verdicts treated as QA
// gates.
func (r *Runner) Run(ctx context.Context, tasks []*model.Task) (*Result, error) {
	session := r.session

	graph, err := buildGraph(tasks)
	if err != nil {
		return nil, fmt.Errorf("building task graph: %w", err)
	}

	requirements := make([]any, 0, len(tasks))
	for _, id := range graph.order {
		requirements = append(requirements, graph.tasks[id].Prompt)
	}
	if err := r.controller.CompleteCurrentPhase(model.PhaseRequirementAnalysis,
		lifecycle.PhaseEvidence{"requirements": requirements}, model.SessionNoEvidence); err != nil {
		return r.invalidResult(session, graph, err)
	}

	decomposed := make([]any, 0, len(tasks))
	for _, id := range graph.order {
		decomposed = append(decomposed, graph.tasks[id].ID)
	}
	if err := r.controller.CompleteCurrentPhase(model.PhaseTaskDecomposition,
		lifecycle.PhaseEvidence{"tasks": decomposed}, model.SessionNoEvidence); err != nil {
		return r.invalidResult(session, graph, err)
	}

	order := graph.topologicalOrder()
	orderAny := make([]any, len(order))
	for i, id := range order {
		orderAny[i] = id
	}
	if err := r.controller.CompleteCurrentPhase(model.PhasePlanning,
		lifecycle.PhaseEvidence{"task_order": orderAny}, model.SessionNoEvidence); err != nil {
		return r.invalidResult(session, graph, err)
	}

	for _, t := range graph.tasks {
		t.Status = model.TaskPending
	}
	reviews, executionOrder, runErr := runSchedule(ctx, graph, r.taskRunner, r.strm, r.cfg.Concurrency)
	if runErr != nil {
		return nil, fmt.Errorf("scheduling task execution: %w", runErr)
	}

	execResults := make([]any, 0, len(executionOrder))
	for _, id := range executionOrder {
		execResults = append(execResults, map[string]any{
			"task_id": id,
			"status":  string(graph.tasks[id].Status),
		})
	}
	execStatus := aggregateSessionStatus(graph.tasks)
	if err := r.controller.CompleteCurrentPhase(model.PhaseExecution,
		lifecycle.PhaseEvidence{"execution_results": execResults}, execStatus); err != nil {
		return r.invalidResult(session, graph, err)
	}

	runID := completion.NewRunID(r.now(), "", session.ID)
	gates := make([]model.QAGateResult, 0, len(graph.order))
	for _, id := range graph.order {
		gates = append(gates, gateForTask(graph.tasks[id], reviews[id], runID))
	}
	gatesAny := make([]any, len(gates))
	for i, g := range gates {
		gatesAny[i] = g.Name
	}
	if err := r.controller.CompleteCurrentPhase(model.PhaseQA,
		lifecycle.PhaseEvidence{"gate_results": gatesAny}, execStatus); err != nil {
		return r.invalidResult(session, graph, err)
	}

	verdict, judgeErr := completion.Judge(gates, runID)
	if judgeErr != nil {
		// A stale/mixed run id is itself reportable, not fatal: the
		// Completion Protocol still returns a verdict alongside the error.
		execStatus = model.SessionError
	}
	if err := r.controller.CompleteCurrentPhase(model.PhaseCompletionValidation,
		lifecycle.PhaseEvidence{"verdict": string(verdict.FinalStatus)}, execStatus); err != nil {
		return r.invalidResult(session, graph, err)
	}

	finalStatus := sessionStatusFromVerdict(verdict, execStatus)
	summary := fmt.Sprintf("%d task(s): %s", len(graph.tasks), finalStatus)
	if err := r.controller.CompleteCurrentPhase(model.PhaseReport,
		lifecycle.PhaseEvidence{"summary": summary}, finalStatus); err != nil {
		return r.invalidResult(session, graph, err)
	}

	return &Result{
		Session:        session,
		Tasks:          graph.tasks,
		ReviewResults:  reviews,
		ExecutionOrder: executionOrder,
		Verdict:        verdict,
		ExitCode:       ExitCodeFor(session.Status),
	}, nil
}

// invalidResult is returned when a phase's evidence fails its minimum
// schema: the controller has already marked the session INVALID, so the
// façade stops driving further phases and reports what it has.
func (r *Runner) invalidResult(session *model.Session, graph *taskGraph, err error) (*Result, error) {
	return &Result{
		Session:  session,
		Tasks:    graph.tasks,
		ExitCode: ExitCodeFor(session.Status),
	}, err
}

// gateForTask renders one task's review verdict as a QAGateResult so the
// Completion Protocol can aggregate task outcomes exactly the way it
// aggregates lint/test/build gates.
func gateForTask(task *model.Task, rr *model.ReviewResult, runID string) model.QAGateResult {
	failing := 0
	if task.Status != model.TaskComplete {
		failing = 1
	}
	gate := model.QAGateResult{Name: task.ID, RunID: runID, FailingCount: failing}
	if failing > 0 {
		gate.FailingTests = []model.FailingTest{{Name: task.ID, Scope: model.ScopeInScope}}
	}
	if rr != nil && rr.LastResult != nil {
		gate.RawOutput = rr.LastResult.Output
	}
	return gate
}

// sessionStatusFromVerdict folds the Completion Protocol's verdict into
// the session status vocabulary, preferring execStatus whenever the
// verdict itself can't improve on it (e.g. a stale run id already forced
// ERROR upstream).
func sessionStatusFromVerdict(verdict *model.CompletionVerdict, execStatus model.SessionStatus) model.SessionStatus {
	if execStatus == model.SessionError {
		return model.SessionError
	}
	switch verdict.FinalStatus {
	case model.FinalStatusComplete:
		return model.SessionComplete
	case model.FinalStatusNoEvidence:
		return model.SessionNoEvidence
	default: // FAILING
		return execStatus
	}
}

// aggregateSessionStatus derives a session-level status from every task's
// current TaskStatus via model.AggregateStatus, in a deterministic
// (id-sorted) order.
func aggregateSessionStatus(tasks map[string]*model.Task) model.SessionStatus {
	if len(tasks) == 0 {
		return model.SessionNoEvidence
	}
	ids := make([]string, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	statuses := make([]model.SessionStatus, 0, len(tasks))
	for _, id := range ids {
		statuses = append(statuses, taskStatusToSessionStatus(tasks[id].Status))
	}
	return model.AggregateStatus(statuses)
}

func taskStatusToSessionStatus(s model.TaskStatus) model.SessionStatus {
	switch s {
	case model.TaskComplete:
		return model.SessionComplete
	case model.TaskIncomplete, model.TaskBlocked:
		return model.SessionIncomplete
	case model.TaskError:
		return model.SessionError
	case model.TaskNoEvidence:
		return model.SessionNoEvidence
	default:
		return model.SessionNoEvidence
	}
}
