package review

import (
	"context"
	"strings"
	"time"

	"github.com/pmrun/pmrun/internal/agentpool"
	"github.com/pmrun/pmrun/internal/model"
	"github.com/pmrun/pmrun/internal/stream"
)

// Runner is the minimal surface the Review Loop needs from a task executor.
// internal/executor.Executor satisfies this structurally.
type Runner interface {
	Run(ctx context.Context, task *model.Task, strm *stream.Stream) *model.ExecutorResult
}

const defaultMaxIterations = 3

// retryDelay is the small pause RETRY waits before reusing the same prompt.
var retryDelay = 2 * time.Second

// Config configures a Loop. ActiveTemplateID activates the optional
// Goal-Drift Guard when it equals "goal_drift_guard"; any other value
// (including the zero value) leaves it off with zero overhead.
type Config struct {
	MaxIterations    int
	EscalateOnMax    bool
	ActiveTemplateID string
	Assembler        PromptAssembler

	// L1 bounds how many tasks may be in an active review loop at once
	// (the "sub-agent" tier); nil means unbounded.
	L1 *agentpool.Pool
}

// Loop wraps a Runner with the Q1-Q6 quality gate, re-invoking on REJECT
// with an assembled modification prompt and on RETRY with the same prompt,
// up to MaxIterations.
type Loop struct {
	runner Runner
	cfg    Config
	sleep  func(time.Duration)
}

// New constructs a Loop. cfg.MaxIterations defaults to 3 when <= 0;
// cfg.Assembler defaults to DefaultAssembler() when nil.
func New(runner Runner, cfg Config) *Loop {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.Assembler == nil {
		cfg.Assembler = DefaultAssembler()
	}
	return &Loop{runner: runner, cfg: cfg, sleep: time.Sleep}
}

// mandatoryFailed returns the criteria in results that failed (nil if none).
func mandatoryFailed(results []model.CriterionResult) []model.CriterionResult {
	var failed []model.CriterionResult
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

func judge(result *model.ExecutorResult, criteria []model.CriterionResult) model.Judgment {
	if result.Status == model.StatusError || result.Status == model.StatusBlocked ||
		strings.Contains(strings.ToLower(result.Output), "timeout") {
		return model.JudgmentRetry
	}
	if len(mandatoryFailed(criteria)) == 0 {
		return model.JudgmentPass
	}
	return model.JudgmentReject
}

// Run drives task through the executor until PASS or MaxIterations is
// reached, returning the full iteration history and final status.
func (l *Loop) Run(ctx context.Context, task *model.Task, strm *stream.Stream) *model.ReviewResult {
	if l.cfg.L1 != nil {
		if err := l.cfg.L1.Acquire(); err != nil {
			return &model.ReviewResult{
				FinalStatus: model.ReviewFinalError,
				LastResult: &model.ExecutorResult{
					Status: model.StatusError,
					Output: err.Error(),
				},
			}
		}
		defer l.cfg.L1.Release()
	}

	prompt := task.Prompt
	result := &model.ReviewResult{}

	for iteration := 1; iteration <= l.cfg.MaxIterations; iteration++ {
		started := time.Now()

		attemptTask := *task
		attemptTask.Prompt = prompt
		execResult := l.runner.Run(ctx, &attemptTask, strm)

		criteria := EvaluateCriteria(execResult)
		var driftFailed bool
		if l.cfg.ActiveTemplateID == "goal_drift_guard" {
			driftResults, err := safeEvaluateGoalDrift(execResult)
			if err != nil {
				// Fail-closed: any evaluator error forces REJECT.
				driftFailed = true
			} else {
				criteria = mergeGoalDrift(criteria, driftResults)
			}
		}

		record := model.IterationRecord{
			Iteration:       iteration,
			StartedAt:       started,
			EndedAt:         time.Now(),
			CriteriaResults: criteria,
		}

		judgment := judge(execResult, criteria)
		if driftFailed {
			judgment = model.JudgmentReject
		}
		record.Judgment = judgment

		if judgment == model.JudgmentReject || driftFailed {
			failed := mandatoryFailed(criteria)
			record.RejectionDetails = &model.RejectionDetails{
				FailedCriteria: failed,
				Summary:        summarizeFailures(failed),
			}
		}

		result.Iterations = append(result.Iterations, record)
		result.LastResult = execResult

		switch judgment {
		case model.JudgmentPass:
			result.FinalStatus = model.ReviewFinalComplete
			return result
		case model.JudgmentRetry:
			l.sleep(retryDelay)
			// RETRY reuses the same prompt unchanged.
			continue
		default: // REJECT
			prompt = l.cfg.Assembler.Assemble(task.Prompt, *record.RejectionDetails)
		}
	}

	if l.cfg.EscalateOnMax {
		result.FinalStatus = model.ReviewFinalIncomplete
	} else {
		result.FinalStatus = model.ReviewFinalError
	}
	return result
}

func summarizeFailures(failed []model.CriterionResult) string {
	var ids []string
	for _, f := range failed {
		ids = append(ids, string(f.ID))
	}
	return strings.Join(ids, ", ") + " failed"
}

// safeEvaluateGoalDrift runs the Goal-Drift Guard and converts any panic
// into an error so the caller can fail-closed into REJECT rather than
// letting an evaluator crash propagate or get swallowed silently.
func safeEvaluateGoalDrift(result *model.ExecutorResult) (res []model.CriterionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errGoalDriftPanic
		}
	}()
	return EvaluateGoalDrift(result), nil
}

var errGoalDriftPanic = &goalDriftError{}

type goalDriftError struct{}

func (*goalDriftError) Error() string { return "goal-drift evaluator panicked" }

// mergeGoalDrift overlays GD-derived criterion results onto the base Q1-Q6
// results: a GD failure on a mapped Q-id overrides a pass, never the
// reverse, so the stricter of the two always wins.
func mergeGoalDrift(base, drift []model.CriterionResult) []model.CriterionResult {
	byID := make(map[model.CriterionID]int, len(base))
	for i, b := range base {
		byID[b.ID] = i
	}
	for _, d := range drift {
		if d.Passed {
			continue
		}
		if i, ok := byID[d.ID]; ok {
			base[i] = d
		}
	}
	return base
}
