// Package utils holds small filesystem/path helpers shared across the
// executor and CLI layers.
package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ResolveBinaryPath finds a binary, checking common locations: an absolute
// path as given, PATH, a tilde-prefixed home path, and, for a binary named
// claude, the well-known install locations the Claude Code CLI uses across
// platforms. A name found nowhere is returned unchanged.
func ResolveBinaryPath(binaryPath string) string {
	if filepath.IsAbs(binaryPath) {
		return binaryPath
	}

	if path, err := exec.LookPath(binaryPath); err == nil {
		return path
	}

	if strings.HasPrefix(binaryPath, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, binaryPath[1:])
		}
	}

	home, err := os.UserHomeDir()
	if err == nil && filepath.Base(binaryPath) == "claude" {
		commonPaths := []string{
			filepath.Join(home, ".claude", "local", "claude"),
			"/usr/local/bin/claude",
			"/opt/homebrew/bin/claude",
		}

		for _, p := range commonPaths {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}

	return binaryPath
}

// ClaudeNotFoundError returns a helpful error message when the external
// executor binary can't be found on PATH or in any well-known location.
func ClaudeNotFoundError() error {
	return fmt.Errorf(`claude not found in PATH

To fix, add to your ~/.zshrc or ~/.bashrc:
  export PATH="$HOME/.claude/local:$PATH"

Then restart your terminal, or run:
  source ~/.zshrc

Alternatively, pass an absolute path as the executor's claude binary in
pm-orchestrator.yaml.`)
}
