package cli

import (
	"fmt"

	"github.com/pmrun/pmrun/internal/model"
	"github.com/pmrun/pmrun/internal/store"
	"github.com/pmrun/pmrun/internal/tasklog"
	"github.com/pmrun/pmrun/internal/workspace"
	"github.com/spf13/cobra"
)

var logsFull bool

var logsCmd = &cobra.Command{
	Use:   "logs [session-id]",
	Short: "Render a session's recorded task transcript",
	Long: `Render the task-log transcript recorded for a session: one line per
recorded entry. 'pmrun run' and 'pmrun resume' record one summary entry
per task, naming its final status. With no session-id, renders the most
recently started session in this project.

By default only summary-visibility entries print; --full also prints
full-visibility entries.`,
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

		entries, err := tasklog.ReadAll(storeInst.SessionDir(sessionID))
		if err != nil {
			return fmt.Errorf("reading task log for session %s: %w", sessionID, err)
		}
		if len(entries) == 0 {
			fmt.Printf("No task-log entries recorded for session %s.\n", sessionID)
			return nil
		}

		for _, e := range entries {
			if e.Visibility == model.VisibilityFull && !logsFull {
				continue
			}
			fmt.Printf("%s  %-24s  %-8s  %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.Event, e.TaskID, e.Text)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().BoolVar(&logsFull, "full", false, "also print full-visibility entries")
	rootCmd.AddCommand(logsCmd)
}
