// Package guard implements the two checks that stand between a task
// prompt and spawning the executor: the pre-flight clarification gate
// (does this prompt even name an unambiguous target?) and the task-type
// BLOCKED gate (is this task type allowed to terminate BLOCKED at all?).
//
// Clarification signals are structured data only — never generated prose —
// so the runner never puts words about disambiguation in the executor's
// mouth.
package guard

import (
	"os"
	"regexp"
	"strings"

	"github.com/pmrun/pmrun/internal/model"
)

// ClarificationReason and Clarification live in model so ExecutorResult
// can carry one directly without an import cycle; aliased here so callers
// within this package read naturally as guard.Clarification.
type ClarificationReason = model.ClarificationReason

const (
	ReasonTargetFileExists      = model.ReasonTargetFileExists
	ReasonTargetFileAmbiguous   = model.ReasonTargetFileAmbiguous
	ReasonTargetActionAmbiguous = model.ReasonTargetActionAmbiguous
)

type Clarification = model.Clarification

var createVerbs = []string{
	"create", "make", "write", "add", "update",
	"作成", "作って", "追加", "更新",
}

var modifyVerbs = []string{
	"modify", "edit", "change", "fix", "refactor", "update",
	"修正", "変更", "編集",
}

// filenameWord matches a token that is actually filename-shaped: a run of
// word characters broken by at least one "." or "/" separator, e.g.
// "README.md" or "src/main.go". A plain English word never matches, so
// ordinary prose around the target doesn't inflate the candidate count.
var filenameWord = regexp.MustCompile(`[A-Za-z0-9_\-]+(?:[./][A-Za-z0-9_\-]+)+`)

func containsAny(promptLower string, verbs []string) bool {
	for _, v := range verbs {
		if strings.Contains(promptLower, v) {
			return true
		}
	}
	return false
}

// candidateFilenames returns every filename-shaped token in prompt, in
// order of appearance.
func candidateFilenames(prompt string) []string {
	return filenameWord.FindAllString(prompt, -1)
}

// PreflightGate decides whether a prompt may proceed to spawn. projectRoot
// is used to resolve a candidate filename against the filesystem for the
// target_file_exists check.
func PreflightGate(prompt, projectRoot string) *Clarification {
	lower := strings.ToLower(prompt)
	candidates := candidateFilenames(prompt)

	isCreate := containsAny(lower, createVerbs)
	isModify := containsAny(lower, modifyVerbs)

	if isCreate {
		// More than one candidate is treated the same as zero: the gate
		// cannot safely pick one (decided as ambiguous, see DESIGN.md).
		if len(candidates) == 1 {
			target := candidates[0]
			if fileExists(projectRoot, target) {
				return &Clarification{Reason: ReasonTargetFileExists, TargetFile: target, OriginalPrompt: prompt}
			}
			return nil
		}
		return &Clarification{Reason: ReasonTargetFileAmbiguous, OriginalPrompt: prompt}
	}

	if isModify {
		if len(candidates) != 1 {
			return &Clarification{Reason: ReasonTargetActionAmbiguous, OriginalPrompt: prompt}
		}
		return nil
	}

	return nil
}

func fileExists(projectRoot, relPath string) bool {
	if projectRoot == "" {
		return false
	}
	path := relPath
	if !strings.HasPrefix(relPath, "/") {
		path = projectRoot + "/" + relPath
	}
	_, err := os.Stat(path)
	return err == nil
}

// BlockedGate promotes a BLOCKED status to INCOMPLETE for any task type
// that does not allow BLOCKED as a terminal outcome (only DANGEROUS_OP
// does).
func BlockedGate(taskType model.TaskType, status model.ExecutorStatus) model.ExecutorStatus {
	if status != model.StatusBlocked {
		return status
	}
	if taskType.AllowsBlocked() {
		return status
	}
	return model.StatusIncomplete
}
