package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, yaml string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Limits.MaxFiles != defaultMaxFiles || cfg.Limits.MaxTests != defaultMaxTests || cfg.Limits.MaxSeconds != defaultMaxSeconds {
		t.Errorf("expected default limits, got %+v", cfg.Limits)
	}
	if len(cfg.Tasks) != 0 {
		t.Errorf("expected no tasks, got %v", cfg.Tasks)
	}
}

func TestLoadAppliesDefaultsForOmittedLimits(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
limits:
  max_files: 12
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Limits.MaxFiles != 12 {
		t.Errorf("MaxFiles = %d, want 12", cfg.Limits.MaxFiles)
	}
	if cfg.Limits.MaxTests != defaultMaxTests {
		t.Errorf("MaxTests = %d, want default %d", cfg.Limits.MaxTests, defaultMaxTests)
	}
}

func TestLoadParsesTaskList(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
tasks:
  - id: t1
    description: "write the README"
    taskType: LIGHT_EDIT
    dependencies: []
  - id: t2
    description: "add a test"
    dependencies: [t1]
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(cfg.Tasks))
	}
	if cfg.Tasks[0].ID != "t1" || cfg.Tasks[0].TaskType != "LIGHT_EDIT" {
		t.Errorf("task 0 = %+v", cfg.Tasks[0])
	}
	if len(cfg.Tasks[1].Dependencies) != 1 || cfg.Tasks[1].Dependencies[0] != "t1" {
		t.Errorf("task 1 dependencies = %v", cfg.Tasks[1].Dependencies)
	}
}

func TestLoadRejectsOutOfRangeLimit(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
limits:
  max_seconds: 5
`)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected an error for max_seconds below the minimum")
	}
}

func TestLoadRejectsTaskWithoutID(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
tasks:
  - description: "no id here"
`)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected an error for a task missing an id")
	}
}

func TestLoadRejectsUnknownTaskType(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
tasks:
  - id: t1
    taskType: NOT_A_REAL_TYPE
`)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected an error for an unrecognized taskType")
	}
}

func TestToModelLimitsConverts(t *testing.T) {
	cfg := DefaultConfig()
	limits := cfg.ToModelLimits()
	if limits.MaxFiles != defaultMaxFiles || limits.MaxTests != defaultMaxTests || limits.MaxSeconds != defaultMaxSeconds {
		t.Errorf("ToModelLimits() = %+v", limits)
	}
}
