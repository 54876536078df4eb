package cli

import (
	"errors"

	"github.com/pmrun/pmrun/internal/workspace"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a new project",
	Long: `Scaffold a new project in the current directory: .claude/CLAUDE.md,
.claude/settings.json, and pm-orchestrator.yaml — the three files pmrun
requires before it will recognize a directory as a project.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := workspace.Init(initForce)
		if errors.Is(err, workspace.ErrWorkspaceExists) {
			exitError(err.Error())
		}
		return err
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing project's scaffold files")
	rootCmd.AddCommand(initCmd)
}
