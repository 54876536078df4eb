package review

import (
	"strings"
	"testing"

	"github.com/pmrun/pmrun/internal/model"
)

func TestBuiltinAssemblerIncludesFailuresAndOriginalPrompt(t *testing.T) {
	details := model.RejectionDetails{
		FailedCriteria: []model.CriterionResult{
			{ID: model.CriterionFilesVerified, Passed: false, Detail: "docs/guide.md unverified"},
		},
		Summary: "Q1 failed",
	}
	prompt := DefaultAssembler().Assemble("add a usage guide", details)

	if !strings.Contains(prompt, "docs/guide.md unverified") {
		t.Error("expected the assembled prompt to include the failure detail")
	}
	if !strings.Contains(prompt, "add a usage guide") {
		t.Error("expected the assembled prompt to include the original task text")
	}
	if !strings.Contains(prompt, "Do not leave TODO") {
		t.Error("expected the fixed requirement block")
	}
}
