// Package review wraps a task executor with the Q1-Q6 quality gate: no
// result may be declared complete until its own output and verified files
// pass six deterministic, pattern-based checks, plus an optional
// Goal-Drift evaluator that catches scope erosion and premature
// completion claims.
package review

import (
	"regexp"
	"strings"

	"github.com/pmrun/pmrun/internal/model"
)

var (
	todoMarkerPattern = regexp.MustCompile(`(?i)\b(TODO|FIXME|TBD|HACK|XXX)\b`)

	// bareEllipsisPattern excludes a real ellipsis followed by a word (e.g. "...and
	// so the file grows") by requiring the "..." itself be followed by
	// whitespace or the end of the text — a genuine prose ellipsis reads differently
	// from a truncation marker like "... (rest omitted)".
	bareEllipsisPattern = regexp.MustCompile(`\.\.\.(\s|$)`)
	omissionPhrases     = []string{"remaining", "etc.", "以下同様"}

	truncationMarkers = []string{"truncated", "cut off"}

	earlyTerminationPhrases = []string{"完了しました", "this completes", "done."}

	escapePhrases = []string{"i'll skip this", "too complex", "let's simplify to"}

	scopeReductionPhrases = []string{"for now only", "skip", "for now"}

	checklistLinePattern = regexp.MustCompile(`(?m)^\s*[-*]\s*\[[ xX]\]`)

	validCompletionPattern = regexp.MustCompile(`(?i)^(completed|done|finished)\b`)
)

// EvaluateCriteria runs Q1-Q6 against one executor invocation's result.
func EvaluateCriteria(result *model.ExecutorResult) []model.CriterionResult {
	return []model.CriterionResult{
		evalFilesVerified(result),
		evalNoTodoFixme(result),
		evalNoOmissionMarkers(result),
		evalNoIncompleteSyntax(result),
		evalEvidencePresent(result),
		evalNoEarlyTermination(result),
	}
}

func evalFilesVerified(r *model.ExecutorResult) model.CriterionResult {
	if len(r.UnverifiedFiles) > 0 {
		return model.CriterionResult{ID: model.CriterionFilesVerified, Passed: false, Detail: "unverified files remain: " + strings.Join(r.UnverifiedFiles, ", ")}
	}
	if len(r.FilesModified) > 0 && !r.HasVerifiedExistingFile() {
		return model.CriterionResult{ID: model.CriterionFilesVerified, Passed: false, Detail: "files were claimed but none verified"}
	}
	return model.CriterionResult{ID: model.CriterionFilesVerified, Passed: true}
}

func evalNoTodoFixme(r *model.ExecutorResult) model.CriterionResult {
	if m := todoMarkerPattern.FindString(r.Output); m != "" {
		return model.CriterionResult{ID: model.CriterionNoTodoFixme, Passed: false, Detail: "marker found: " + m}
	}
	for _, f := range r.VerifiedFiles {
		if m := todoMarkerPattern.FindString(f.ContentPreview); m != "" {
			return model.CriterionResult{ID: model.CriterionNoTodoFixme, Passed: false, Detail: "marker found in " + f.Path + ": " + m}
		}
	}
	return model.CriterionResult{ID: model.CriterionNoTodoFixme, Passed: true}
}

func hasOmissionMarker(text string) (string, bool) {
	if bareEllipsisPattern.MatchString(text) {
		return "...", true
	}
	lower := strings.ToLower(text)
	for _, p := range omissionPhrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}

func evalNoOmissionMarkers(r *model.ExecutorResult) model.CriterionResult {
	if m, ok := hasOmissionMarker(r.Output); ok {
		return model.CriterionResult{ID: model.CriterionNoOmissionMarkers, Passed: false, Detail: "omission marker: " + m}
	}
	return model.CriterionResult{ID: model.CriterionNoOmissionMarkers, Passed: true}
}

// bracketsBalanced reports whether every (), {}, [] in text closes in order.
func bracketsBalanced(text string) bool {
	pairs := map[rune]rune{')': '(', '}': '{', ']': '['}
	var stack []rune
	for _, r := range text {
		switch r {
		case '(', '{', '[':
			stack = append(stack, r)
		case ')', '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0
}

var fencedCodeBlockPattern = regexp.MustCompile("(?s)```.*?```")

func evalNoIncompleteSyntax(r *model.ExecutorResult) model.CriterionResult {
	lower := strings.ToLower(r.Output)
	for _, m := range truncationMarkers {
		if strings.Contains(lower, m) {
			return model.CriterionResult{ID: model.CriterionNoIncompleteSyntax, Passed: false, Detail: "truncation marker: " + m}
		}
	}
	for _, block := range fencedCodeBlockPattern.FindAllString(r.Output, -1) {
		if !bracketsBalanced(block) {
			return model.CriterionResult{ID: model.CriterionNoIncompleteSyntax, Passed: false, Detail: "unbalanced brackets in a fenced code block"}
		}
	}
	return model.CriterionResult{ID: model.CriterionNoIncompleteSyntax, Passed: true}
}

func evalEvidencePresent(r *model.ExecutorResult) model.CriterionResult {
	if r.HasVerifiedExistingFile() {
		return model.CriterionResult{ID: model.CriterionEvidencePresent, Passed: true}
	}
	if r.Executed && r.Status != model.StatusError && len(r.FilesModified) > 0 {
		return model.CriterionResult{ID: model.CriterionEvidencePresent, Passed: true}
	}
	return model.CriterionResult{ID: model.CriterionEvidencePresent, Passed: false, Detail: "no verified files and no modified-file list"}
}

func evalNoEarlyTermination(r *model.ExecutorResult) model.CriterionResult {
	lower := strings.ToLower(r.Output)
	for _, p := range earlyTerminationPhrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			if r.HasVerifiedExistingFile() {
				continue
			}
			return model.CriterionResult{ID: model.CriterionNoEarlyTermination, Passed: false, Detail: "completion phrase without evidence: " + p}
		}
	}
	return model.CriterionResult{ID: model.CriterionNoEarlyTermination, Passed: true}
}

// EvaluateGoalDrift runs GD1-GD5 against one executor invocation's result,
// mapping each to the Q-criteria id it overrides. Only called when the
// active template id is "goal_drift_guard" — zero overhead otherwise.
func EvaluateGoalDrift(r *model.ExecutorResult) []model.CriterionResult {
	lower := strings.ToLower(r.Output)

	gd1 := model.CriterionResult{ID: model.CriterionNoTodoFixme, Passed: true}
	for _, p := range escapePhrases {
		if strings.Contains(lower, p) {
			gd1 = model.CriterionResult{ID: model.CriterionNoTodoFixme, Passed: false, Detail: "escape phrase: " + p}
			break
		}
	}

	gd2 := model.CriterionResult{ID: model.CriterionEvidencePresent, Passed: true}
	if !r.HasVerifiedExistingFile() {
		for _, p := range earlyTerminationPhrases {
			if strings.Contains(lower, strings.ToLower(p)) {
				gd2 = model.CriterionResult{ID: model.CriterionEvidencePresent, Passed: false, Detail: "premature completion declaration without evidence"}
				break
			}
		}
	}

	gd3 := model.CriterionResult{ID: model.CriterionEvidencePresent, Passed: checklistLinePattern.MatchString(r.Output)}
	if !gd3.Passed {
		gd3.Detail = "no requirement checklist found"
	}

	gd4 := model.CriterionResult{ID: model.CriterionEvidencePresent, Passed: true}
	for _, p := range earlyTerminationPhrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			trimmed := strings.TrimSpace(r.Output)
			if !validCompletionPattern.MatchString(trimmed) {
				gd4 = model.CriterionResult{ID: model.CriterionEvidencePresent, Passed: false, Detail: "completion statement does not match a permitted pattern"}
			}
			break
		}
	}

	gd5 := model.CriterionResult{ID: model.CriterionNoOmissionMarkers, Passed: true}
	for _, p := range scopeReductionPhrases {
		if strings.Contains(lower, p) {
			gd5 = model.CriterionResult{ID: model.CriterionNoOmissionMarkers, Passed: false, Detail: "scope reduction phrase: " + p}
			break
		}
	}

	return []model.CriterionResult{gd1, gd2, gd3, gd4, gd5}
}
