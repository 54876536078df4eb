package guard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pmrun/pmrun/internal/model"
)

func TestPreflightGateCreateExistingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# x"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := PreflightGate("create README.md with a summary", dir)
	if c == nil || c.Reason != ReasonTargetFileExists {
		t.Fatalf("got %+v, want target_file_exists", c)
	}
	if c.TargetFile != "README.md" {
		t.Errorf("TargetFile = %q, want README.md", c.TargetFile)
	}
}

func TestPreflightGateCreateNewFileProceeds(t *testing.T) {
	dir := t.TempDir()
	c := PreflightGate("create README.md with a summary", dir)
	if c != nil {
		t.Fatalf("got %+v, want nil (proceed to spawn)", c)
	}
}

func TestPreflightGateCreateAmbiguousNoFilename(t *testing.T) {
	c := PreflightGate("create it", "")
	if c == nil || c.Reason != ReasonTargetFileAmbiguous {
		t.Fatalf("got %+v, want target_file_ambiguous", c)
	}
}

func TestPreflightGateCreateAmbiguousTwoFiles(t *testing.T) {
	c := PreflightGate("create report.md and summary.txt", "")
	if c == nil || c.Reason != ReasonTargetFileAmbiguous {
		t.Fatalf("two candidate files should be treated as ambiguous, got %+v", c)
	}
}

func TestPreflightGateModifyAmbiguous(t *testing.T) {
	c := PreflightGate("fix it please", "")
	if c == nil || c.Reason != ReasonTargetActionAmbiguous {
		t.Fatalf("got %+v, want target_action_ambiguous", c)
	}
}

func TestPreflightGateModifyUnambiguousProceeds(t *testing.T) {
	c := PreflightGate("fix main.go to handle the edge case", "")
	if c != nil {
		t.Fatalf("got %+v, want nil (proceed to spawn)", c)
	}
}

func TestPreflightGateReadInfoNeverGated(t *testing.T) {
	c := PreflightGate("what does this project do", "")
	if c != nil {
		t.Fatalf("read-only prompt should never be gated, got %+v", c)
	}
}

func TestBlockedGatePromotesUnlessDangerousOp(t *testing.T) {
	tests := []struct {
		name string
		typ  model.TaskType
		want model.ExecutorStatus
	}{
		{"implementation blocked is promoted", model.TaskTypeImplementation, model.StatusIncomplete},
		{"dangerous op blocked stays blocked", model.TaskTypeDangerousOp, model.StatusBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BlockedGate(tt.typ, model.StatusBlocked)
			if got != tt.want {
				t.Errorf("BlockedGate(%s, BLOCKED) = %s, want %s", tt.typ, got, tt.want)
			}
		})
	}
}

func TestBlockedGateLeavesNonBlockedAlone(t *testing.T) {
	got := BlockedGate(model.TaskTypeImplementation, model.StatusComplete)
	if got != model.StatusComplete {
		t.Errorf("BlockedGate should not alter non-BLOCKED status, got %s", got)
	}
}
