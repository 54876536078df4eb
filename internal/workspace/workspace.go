// Package workspace locates and validates a project directory: the
// three-file contract (.claude/CLAUDE.md, .claude/settings.json,
// pm-orchestrator.yaml) that makes a directory a recognized project for
// the runner to operate on.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/pmrun/pmrun/internal/config"
	"github.com/pmrun/pmrun/internal/model"
)

const (
	claudeDir          = ".claude"
	claudeMemoryFile   = "CLAUDE.md"
	claudeSettingsFile = "settings.json"
	dataDir            = ".pmrun"
)

// requiredFiles returns the three paths (relative to a project root) that
// must all exist for the directory to be a valid project.
func requiredFiles(root string) []string {
	return []string{
		filepath.Join(root, claudeDir, claudeMemoryFile),
		filepath.Join(root, claudeDir, claudeSettingsFile),
		filepath.Join(root, config.FileName),
	}
}

// isValidProject reports whether every required file exists under root and
// is a regular file, not a directory.
func isValidProject(root string) bool {
	for _, p := range requiredFiles(root) {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

// Find walks up from cwd looking for a directory satisfying the project
// contract, returning model.ErrProjectPathInvalid if the walk reaches the
// filesystem root without finding one.
func Find() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindFrom(dir)
}

// FindFrom walks up from start looking for a valid project directory.
func FindFrom(start string) (string, error) {
	dir := start
	for {
		if isValidProject(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", model.NewKindError(model.KindConfiguration, model.ErrProjectPathInvalid)
		}
		dir = parent
	}
}

// Validate reports model.ErrProjectPathInvalid if root does not satisfy the
// project contract, without walking up to any parent directory.
func Validate(root string) error {
	if !isValidProject(root) {
		return model.NewKindError(model.KindConfiguration, model.ErrProjectPathInvalid)
	}
	return nil
}

// ClaudeMemoryPath returns the CLAUDE.md path for a project root.
func ClaudeMemoryPath(root string) string {
	return filepath.Join(root, claudeDir, claudeMemoryFile)
}

// ClaudeSettingsPath returns the settings.json path for a project root.
func ClaudeSettingsPath(root string) string {
	return filepath.Join(root, claudeDir, claudeSettingsFile)
}

// ConfigPath returns the pm-orchestrator.yaml path for a project root.
func ConfigPath(root string) string {
	return filepath.Join(root, config.FileName)
}

// StoreRoot returns the directory under which session/task state is
// persisted for a project root.
func StoreRoot(root string) string {
	return filepath.Join(root, dataDir, "store")
}

// EvidenceRoot returns the directory under which evidence records are
// persisted for a project root.
func EvidenceRoot(root string) string {
	return filepath.Join(root, dataDir, "evidence")
}
