package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pmrun/pmrun/internal/config"
)

// ErrWorkspaceExists signals that Init was asked to scaffold a project that
// already satisfies the project contract.
var ErrWorkspaceExists = fmt.Errorf("project already initialized (use --force to overwrite)")

// Init scaffolds a new project in the current directory: .claude/CLAUDE.md,
// .claude/settings.json, and pm-orchestrator.yaml, the three files Find
// looks for.
func Init(force bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if isValidProject(cwd) && !force {
		return ErrWorkspaceExists
	}

	if err := os.MkdirAll(filepath.Join(cwd, claudeDir), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", claudeDir, err)
	}

	if err := writeFileIfAbsent(ClaudeMemoryPath(cwd), defaultClaudeMemory, force); err != nil {
		return err
	}
	if err := writeFileIfAbsent(ClaudeSettingsPath(cwd), defaultClaudeSettings, force); err != nil {
		return err
	}
	scaffoldConfig, err := scaffoldOrchestratorConfig()
	if err != nil {
		return fmt.Errorf("rendering default %s: %w", config.FileName, err)
	}
	if err := writeFileIfAbsent(ConfigPath(cwd), scaffoldConfig, force); err != nil {
		return err
	}

	fmt.Println("Initialized project in", cwd)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit pm-orchestrator.yaml with your task list and limits")
	fmt.Println("  2. Run 'pmrun run' to execute the tasks")

	return nil
}

func writeFileIfAbsent(path, content string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

const defaultClaudeMemory = `# Project memory

Describe the project here so the executor has the context it needs:
architecture, conventions, and anything a new contributor would need to
know before making a change.
`

const defaultClaudeSettings = `{
  "permissions": {
    "allow": ["Read", "Write", "Edit", "Bash", "Glob", "Grep"]
  }
}
`

// scaffoldOrchestratorConfig renders config.DefaultConfig() as YAML, headed
// by a comment pointing at the two fields a new project actually needs to
// edit — generated rather than hand-written so the scaffold can never fall
// out of sync with what Load actually parses.
func scaffoldOrchestratorConfig() (string, error) {
	doc, err := config.DefaultConfig().Marshal()
	if err != nil {
		return "", err
	}
	header := "# " + config.FileName + "\n# Edit limits.* and add entries to tasks[] to declare work for `pmrun run`.\n"
	return header + string(doc), nil
}
