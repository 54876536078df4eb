package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pmrun/pmrun/internal/llm"
	"github.com/pmrun/pmrun/internal/model"
)

func TestRunCreatesVerifiedFileCompletes(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "README.md")

	backend := llm.NewMockBackend("Wrote README.md with the requested summary.")
	backend.SideEffect = func() {
		_ = os.WriteFile(target, []byte("# Project\n"), 0o644)
	}

	cfg := &Config{ProjectRoot: dir}
	exec := New(cfg, backend)

	// "document the project with a short summary" avoids the pre-flight
	// create/modify verb list so the gate lets this prompt through to spawn
	// even though it will end up writing README.md.
	task := model.NewTask("session-1", "document the project with a short summary", model.TaskTypeLightEdit)

	result := exec.Run(context.Background(), task, nil)

	if !result.Executed {
		t.Fatal("expected Executed = true")
	}
	if result.Status != model.StatusComplete {
		t.Fatalf("Status = %s, want COMPLETE; verified=%+v unverified=%v", result.Status, result.VerifiedFiles, result.UnverifiedFiles)
	}
	if !result.SatisfiesCompletionAuthority() {
		t.Error("COMPLETE result must satisfy the Completion Authority invariant")
	}
}

func TestRunPreflightGateBlocksSpawn(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "README.md"), []byte("# existing"), 0o644)

	backend := llm.NewMockBackend("irrelevant")
	cfg := &Config{ProjectRoot: dir}
	exec := New(cfg, backend)

	task := model.NewTask("session-1", "create README.md please", model.TaskTypeLightEdit)
	result := exec.Run(context.Background(), task, nil)

	if result.Executed {
		t.Fatal("expected Executed = false when pre-flight gate fires")
	}
	if result.Clarification == nil || result.Clarification.Reason != model.ReasonTargetFileExists {
		t.Fatalf("expected target_file_exists clarification, got %+v", result.Clarification)
	}
	if backend.Calls() != 0 {
		t.Error("backend should never be invoked when the gate refuses to spawn")
	}
}

func TestRunUnverifiedClaimYieldsNoEvidence(t *testing.T) {
	dir := t.TempDir()
	backend := llm.NewMockBackend("I wrote docs/guide.md with the requested content.")
	cfg := &Config{ProjectRoot: dir}
	exec := New(cfg, backend)

	task := model.NewTask("session-1", "write a usage guide to docs/guide.md", model.TaskTypeImplementation)
	result := exec.Run(context.Background(), task, nil)

	if !result.Executed {
		t.Fatal("expected Executed = true")
	}
	if result.Status != model.StatusNoEvidence {
		t.Errorf("Status = %s, want NO_EVIDENCE", result.Status)
	}
	found := false
	for _, u := range result.UnverifiedFiles {
		if u == "docs/guide.md" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected docs/guide.md in UnverifiedFiles, got %v", result.UnverifiedFiles)
	}
}

func TestRunNothingClaimedOrDetectedIsIncomplete(t *testing.T) {
	dir := t.TempDir()
	backend := llm.NewMockBackend("I looked around but made no changes.")
	cfg := &Config{ProjectRoot: dir}
	exec := New(cfg, backend)

	task := model.NewTask("session-1", "investigate the bug and report what you find", model.TaskTypeReadInfo)
	result := exec.Run(context.Background(), task, nil)

	if result.Status != model.StatusIncomplete {
		t.Errorf("Status = %s, want INCOMPLETE", result.Status)
	}
}
