package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pmrun/pmrun/internal/agentpool"
	"github.com/pmrun/pmrun/internal/config"
	"github.com/pmrun/pmrun/internal/display"
	"github.com/pmrun/pmrun/internal/evidence"
	"github.com/pmrun/pmrun/internal/executor"
	"github.com/pmrun/pmrun/internal/llm"
	"github.com/pmrun/pmrun/internal/model"
	"github.com/pmrun/pmrun/internal/review"
	"github.com/pmrun/pmrun/internal/runner"
	"github.com/pmrun/pmrun/internal/store"
	"github.com/pmrun/pmrun/internal/stream"
	"github.com/pmrun/pmrun/internal/tasklog"
	"github.com/pmrun/pmrun/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	runModel       string
	runConcurrency int
)

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Execute a session's tasks and print the verdict",
	Long: `Execute the tasks declared in pm-orchestrator.yaml (or, given a single
positional argument, one ad hoc task built from that prompt) through the
full seven-phase lifecycle, and print the resulting completion verdict.

The process exit code mirrors the session's final status:
  0  COMPLETE
  1  ERROR
  2  INCOMPLETE or NO_EVIDENCE
  3  INVALID`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := workspace.Find()
		if err != nil {
			return fmt.Errorf("not a pmrun project (run 'pmrun init' first): %w", err)
		}

		cfg, err := config.Load(root)
		if err != nil {
			return err
		}

		session := model.NewSession(root)

		tasks, err := buildTasks(cfg, session.ID, args)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			return fmt.Errorf("no tasks: pass a prompt or declare tasks[] in %s", config.FileName)
		}

		exitCode, runErr := executeSession(root, session, tasks, runModel, runConcurrency)
		if exitCode != int(runner.ExitComplete) {
			os.Exit(exitCode)
		}
		return runErr
	},
}

func init() {
	runCmd.Flags().StringVar(&runModel, "model", "", "model to pass to the external executor")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 1, "maximum number of tasks to run at once")
	rootCmd.AddCommand(runCmd)
}

// buildTasks prefers an ad hoc single-task prompt from args over the
// project's declared task list, so `pmrun run "fix the typo"` never
// requires editing pm-orchestrator.yaml first.
func buildTasks(cfg *config.Config, sessionID string, args []string) ([]*model.Task, error) {
	if len(args) > 0 {
		return []*model.Task{model.NewTask(sessionID, args[0], model.TaskTypeImplementation)}, nil
	}

	limits := cfg.ToModelLimits()
	tasks := make([]*model.Task, 0, len(cfg.Tasks))
	for _, spec := range cfg.Tasks {
		if spec.WillFail {
			fmt.Fprintf(os.Stderr, "note: task %q is declared willFail — a non-COMPLETE outcome is expected\n", spec.ID)
		}
		tasks = append(tasks, spec.ToTask(sessionID, limits))
	}
	return tasks, nil
}

// selectBackend resolves the execution backend from the environment
// variables the external-interfaces contract defines. NODE_ENV's
// production gate is enforced by llm.NewRecoveryStub itself, not here —
// this function only decides which backend to construct.
func selectBackend() llm.Backend {
	switch os.Getenv("PM_EXECUTOR_MODE") {
	case "recovery-stub":
		scenario := llm.RecoveryScenario(os.Getenv("PM_RECOVERY_SCENARIO"))
		if scenario == "" {
			scenario = llm.ScenarioFailClosed
		}
		return llm.NewRecoveryStub(scenario, os.Getenv)
	}

	if os.Getenv("CLI_TEST_MODE") == "1" {
		return llm.NewMockBackend("pmrun CLI_TEST_MODE: no real executor invoked")
	}

	return llm.NewClaude("")
}

// envDurationMs reads name as a non-negative integer count of
// milliseconds, returning 0 (no override) if unset or invalid.
func envDurationMs(name string) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Millisecond
}

// executeSession wires the concurrency pools, executor, review loop, and
// runner façade around session and tasks, drives them to a verdict,
// persists the outcome, prints it, and returns the process exit code a
// caller should use (runner.ExitComplete on success).
func executeSession(root string, session *model.Session, tasks []*model.Task, modelOverride string, concurrency int) (int, error) {
	storeInst, err := store.New(workspace.StoreRoot(root))
	if err != nil {
		return int(runner.ExitError), err
	}
	evidenceStore, err := evidence.New(workspace.EvidenceRoot(root))
	if err != nil {
		return int(runner.ExitError), err
	}

	strm := stream.New(0)
	backend := selectBackend()

	execConfig := executor.DefaultConfig(root)
	if modelOverride != "" {
		execConfig.Model = modelOverride
	}
	execConfig.SoftTimeout = envDurationMs("SOFT_TIMEOUT_MS")
	execConfig.SilenceLogInterval = envDurationMs("SILENCE_LOG_INTERVAL_MS")

	pools := agentpool.NewPools(concurrency, concurrency)
	execConfig.Pool = pools.L2

	exec := executor.New(execConfig, backend)
	reviewLoop := review.New(exec, review.Config{L1: pools.L1})
	recorder := &runner.EvidenceRecorder{Store: evidenceStore}

	rn := runner.New(session, recorder, reviewLoop, strm, runner.Config{Concurrency: concurrency})

	disp := display.New()
	disp.Banner("pmrun", fmt.Sprintf("session %s", session.ID), fmt.Sprintf("project %s", session.ProjectPath))

	unsub := relayStream(disp, strm, tasks)
	defer unsub()

	result, runErr := rn.Run(context.Background(), tasks)
	if runErr != nil {
		disp.Error(runErr.Error())
	}

	persistResult(storeInst, session, tasks, result)

	if result == nil {
		return int(runner.ExitError), runErr
	}

	printVerdict(disp, result)
	return int(result.ExitCode), runErr
}

// relayStream subscribes to one live feed per task and prints every chunk
// through disp as it arrives, returning a func that tears every
// subscription down once the run is done. A background executor run with
// no terminal attached still works fine: Claude/Info/Warning are no-ops
// for nobody, they just write to stdout.
func relayStream(disp *display.Display, strm *stream.Stream, tasks []*model.Task) func() {
	var unsubs []func()
	for _, t := range tasks {
		sub, unsubscribe := strm.Subscribe(t.ID, t.SessionID, t.CreatedAt, 0)
		unsubs = append(unsubs, unsubscribe)
		go func(taskID string, c <-chan model.ExecutorOutputChunk) {
			for chunk := range c {
				relayChunk(disp, taskID, chunk)
			}
		}(t.ID, sub.C)
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func relayChunk(disp *display.Display, taskID string, chunk model.ExecutorOutputChunk) {
	switch chunk.Stream {
	case model.StreamStdout:
		disp.Claude(taskID, chunk.Text)
	case model.StreamError:
		disp.Warning(fmt.Sprintf("%s: %s", taskID, chunk.Text))
	case model.StreamSpawn, model.StreamSystem, model.StreamState:
		disp.Info(taskID, chunk.Text)
	default: // StreamStderr, StreamPreflight, StreamGuard
		disp.Warning(fmt.Sprintf("%s: %s", taskID, chunk.Text))
	}
}

// persistResult saves the session and every task's final state, and
// appends one TASK_COMPLETED task-log entry per task so `pmrun
// logs` has a transcript to render even if the evidence store is the
// only other record of what happened.
func persistResult(storeInst *store.Store, session *model.Session, tasks []*model.Task, result *runner.Result) {
	if err := storeInst.SaveSession(session); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not persist session:", err)
	}

	sessionDir := storeInst.SessionDir(session.ID)
	for _, t := range tasks {
		var rr *model.ReviewResult
		if result != nil {
			if saved, ok := result.Tasks[t.ID]; ok {
				t = saved
			}
			rr = result.ReviewResults[t.ID]
		}
		if err := storeInst.SaveTask(t); err != nil {
			fmt.Fprintln(os.Stderr, "warning: could not persist task", t.ID, ":", err)
		}

		text := fmt.Sprintf("task %s finished as %s", t.ID, t.Status)
		if rr != nil && rr.LastResult != nil {
			text = fmt.Sprintf("%s (%d iteration(s))", text, len(rr.Iterations))
		}
		_ = tasklog.Append(sessionDir, model.NewTaskLog(t.ID, model.EventTaskCompleted, model.VisibilitySummary, text))
	}
}

func printVerdict(disp *display.Display, result *runner.Result) {
	if result.Verdict == nil {
		disp.Warning("no verdict produced")
		return
	}
	disp.Info("Status", string(result.Session.Status))
	disp.Info("Verdict", string(result.Verdict.FinalStatus))
	if !result.Verdict.AllPass {
		disp.Warning(fmt.Sprintf("%d failing gate(s): %v", result.Verdict.FailingTotal, result.Verdict.FailingGates))
	}
	for _, id := range result.ExecutionOrder {
		t := result.Tasks[id]
		disp.Info(t.ID, string(t.Status))
	}
}
