package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set by goreleaser via ldflags
	Version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "pmrun",
	Short: "Drive natural-language tasks through a verified completion protocol",
	Long: `pmrun orchestrates natural-language tasks through an external LLM-driven
executor and renders a verified, evidence-based completion verdict.

Every run advances a session through a fixed seven-phase lifecycle
(requirement analysis, task decomposition, planning, execution, QA,
completion validation, report), dispatching tasks in dependency order
and never calling a task COMPLETE without a verified file on disk to
show for it.

Core commands:
  pmrun init     Scaffold a new project (.claude/ + pm-orchestrator.yaml)
  pmrun run      Execute a session's tasks and print the verdict
  pmrun resume   Re-run a prior session's unfinished tasks as a new session
  pmrun status   Show a session's phase, task statuses, and verdict
  pmrun logs     Render a session's recorded task transcript`,
	Version: Version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("pmrun version %s\n", Version))
}

func exitError(msg string) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	os.Exit(1)
}
