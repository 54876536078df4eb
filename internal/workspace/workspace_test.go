package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pmrun/pmrun/internal/model"
)

func makeValidProject(t *testing.T, root string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(root, claudeDir), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, p := range requiredFiles(root) {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestFindFromLocatesValidProject(t *testing.T) {
	root := t.TempDir()
	makeValidProject(t, root)

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	found, err := FindFrom(nested)
	if err != nil {
		t.Fatalf("FindFrom: %v", err)
	}
	if found != root {
		t.Errorf("found = %s, want %s", found, root)
	}
}

func TestFindFromMissingContractReturnsProjectPathInvalid(t *testing.T) {
	root := t.TempDir()
	_, err := FindFrom(root)
	if err == nil {
		t.Fatal("expected an error for a directory with no project files")
	}
	if !model.IsKind(err, model.KindConfiguration) {
		t.Errorf("expected KindConfiguration, got %v", err)
	}
}

func TestValidateRejectsPartialContract(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, claudeDir), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ClaudeMemoryPath(root), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// settings.json and pm-orchestrator.yaml are missing.
	if err := Validate(root); err == nil {
		t.Fatal("expected an error for a partial project contract")
	}
}

func TestValidateAcceptsCompleteContract(t *testing.T) {
	root := t.TempDir()
	makeValidProject(t, root)
	if err := Validate(root); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
