package cli

import (
	"fmt"
	"sort"

	"github.com/pmrun/pmrun/internal/model"
	"github.com/pmrun/pmrun/internal/store"
	"github.com/pmrun/pmrun/internal/workspace"
	"github.com/spf13/cobra"
)

var statusVerbose bool

var statusCmd = &cobra.Command{
	Use:   "status [session-id]",
	Short: "Show a session's phase, task statuses, and verdict",
	Long: `Show a session's current lifecycle phase, its aggregate status, and
the status of every task it owns. With no session-id, shows the most
recently started session in this project.

Use --verbose to also print each task's prompt and dependency ids.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := workspace.Find()
		if err != nil {
			return fmt.Errorf("not a pmrun project (run 'pmrun init' first): %w", err)
		}

		storeInst, err := store.New(workspace.StoreRoot(root))
		if err != nil {
			return err
		}

		sessionID := ""
		if len(args) > 0 {
			sessionID = args[0]
		} else {
			sessionID, err = storeInst.LatestSessionID()
			if err != nil {
				return err
			}
			if sessionID == "" {
				fmt.Println("No sessions recorded yet. Run 'pmrun run' to start one.")
				return nil
			}
		}

		session, err := storeInst.LoadSession(sessionID)
		if err != nil {
			return fmt.Errorf("loading session %s: %w", sessionID, err)
		}

		tasks, err := storeInst.ListTasks(sessionID)
		if err != nil {
			return fmt.Errorf("loading tasks for session %s: %w", sessionID, err)
		}
		sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

		printSessionStatus(session, tasks, statusVerbose)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVarP(&statusVerbose, "verbose", "v", false, "show each task's prompt and dependencies")
	rootCmd.AddCommand(statusCmd)
}

func printSessionStatus(session *model.Session, tasks []*model.Task, verbose bool) {
	fmt.Printf("Session %s\n", session.ID)
	fmt.Printf("  Project: %s\n", session.ProjectPath)
	fmt.Printf("  Phase:   %s\n", session.CurrentPhase)
	fmt.Printf("  Status:  %s\n", session.Status)
	fmt.Printf("  Started: %s\n", session.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Println()

	if len(tasks) == 0 {
		fmt.Println("No tasks recorded for this session yet.")
		return
	}

	fmt.Printf("Tasks (%d):\n", len(tasks))
	for _, t := range tasks {
		fmt.Printf("  %s  %-12s  %s\n", statusGlyph(t.Status), t.Status, t.ID)
		if verbose {
			fmt.Printf("      type: %s\n", t.Type)
			if len(t.DependencyIDs) > 0 {
				fmt.Printf("      depends on: %v\n", t.DependencyIDs)
			}
			if len(t.FilesModified) > 0 {
				fmt.Printf("      files modified: %v\n", t.FilesModified)
			}
			fmt.Printf("      prompt: %s\n", truncatePrompt(t.Prompt, 120))
		}
	}
}

func statusGlyph(status model.TaskStatus) string {
	switch status {
	case model.TaskComplete:
		return "✓"
	case model.TaskError, model.TaskBlocked:
		return "✗"
	case model.TaskIncomplete, model.TaskNoEvidence:
		return "!"
	case model.TaskRunning:
		return "~"
	default:
		return "○"
	}
}

func truncatePrompt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
