package cli

import (
	"fmt"
	"os"

	"github.com/pmrun/pmrun/internal/model"
	"github.com/pmrun/pmrun/internal/runner"
	"github.com/pmrun/pmrun/internal/store"
	"github.com/pmrun/pmrun/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	resumeModel       string
	resumeConcurrency int
)

var resumeCmd = &cobra.Command{
	Use:   "resume [session-id]",
	Short: "Re-run a session's unfinished tasks under a new session",
	Long: `Load a previously recorded session (or, with no session-id, the most
recently started one), pick out the tasks that never reached COMPLETE, and
run just those through the full lifecycle again under a fresh session.

Tasks that already completed are left alone: their dependency edges are
dropped rather than carried forward, since a COMPLETE dependency is by
definition already satisfied. A session with nothing left to resume exits
0 without spawning the external executor.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := workspace.Find()
		if err != nil {
			return fmt.Errorf("not a pmrun project (run 'pmrun init' first): %w", err)
		}

		storeInst, err := store.New(workspace.StoreRoot(root))
		if err != nil {
			return err
		}

		sourceID := ""
		if len(args) > 0 {
			sourceID = args[0]
		} else {
			sourceID, err = storeInst.LatestSessionID()
			if err != nil {
				return err
			}
			if sourceID == "" {
				return fmt.Errorf("no sessions recorded yet; run 'pmrun run' first")
			}
		}

		sourceTasks, err := storeInst.ListTasks(sourceID)
		if err != nil {
			return fmt.Errorf("loading tasks for session %s: %w", sourceID, err)
		}

		pending := unfinishedTasks(sourceTasks)
		if len(pending) == 0 {
			fmt.Printf("session %s has no unfinished tasks; nothing to resume\n", sourceID)
			return nil
		}

		session := model.NewSession(root)
		tasks := rebaseTasks(pending, session.ID)

		fmt.Printf("resuming %d/%d task(s) from session %s as session %s\n",
			len(tasks), len(sourceTasks), sourceID, session.ID)

		exitCode, runErr := executeSession(root, session, tasks, resumeModel, resumeConcurrency)
		if exitCode != int(runner.ExitComplete) {
			os.Exit(exitCode)
		}
		return runErr
	},
}

func init() {
	resumeCmd.Flags().StringVar(&resumeModel, "model", "", "model to pass to the external executor")
	resumeCmd.Flags().IntVar(&resumeConcurrency, "concurrency", 1, "maximum number of tasks to run at once")
	rootCmd.AddCommand(resumeCmd)
}

// unfinishedTasks returns every task whose status is not COMPLETE.
func unfinishedTasks(tasks []*model.Task) []*model.Task {
	var out []*model.Task
	for _, t := range tasks {
		if t.Status != model.TaskComplete {
			out = append(out, t)
		}
	}
	return out
}

// rebaseTasks clones pending onto a new session id, resetting each task to
// PENDING with no recorded evidence, and prunes DependencyIDs down to the
// ids still present in pending — a dependency that isn't being resumed
// already reached COMPLETE, so dropping the edge is equivalent to treating
// it as already satisfied.
func rebaseTasks(pending []*model.Task, sessionID string) []*model.Task {
	stillPending := make(map[string]bool, len(pending))
	for _, t := range pending {
		stillPending[t.ID] = true
	}

	out := make([]*model.Task, 0, len(pending))
	for _, t := range pending {
		clone := *t
		clone.SessionID = sessionID
		clone.Status = model.TaskPending
		clone.EvidenceIDs = nil
		clone.FilesModified = nil

		var deps []string
		for _, dep := range t.DependencyIDs {
			if stillPending[dep] {
				deps = append(deps, dep)
			}
		}
		clone.DependencyIDs = deps

		out = append(out, &clone)
	}
	return out
}
