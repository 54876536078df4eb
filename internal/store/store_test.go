package store

import (
	"path/filepath"
	"testing"

	"github.com/pmrun/pmrun/internal/model"
)

func TestSaveAndLoadSessionRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	session := model.NewSession("/tmp/project")
	session.Status = model.SessionIncomplete

	if err := s.SaveSession(session); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	loaded, err := s.LoadSession(session.ID)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if loaded.ID != session.ID || loaded.Status != model.SessionIncomplete {
		t.Errorf("loaded session = %+v", loaded)
	}
}

func TestSaveAndLoadTaskRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	task := model.NewTask("session-1", "do the thing", model.TaskTypeLightEdit)
	if err := s.SaveTask(task); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}

	loaded, err := s.LoadTask("session-1", task.ID)
	if err != nil {
		t.Fatalf("LoadTask: %v", err)
	}
	if loaded.Prompt != "do the thing" {
		t.Errorf("loaded task = %+v", loaded)
	}
}

func TestListTasksReturnsAllPersistedTasks(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t1 := model.NewTask("session-1", "task one", model.TaskTypeReadInfo)
	t2 := model.NewTask("session-1", "task two", model.TaskTypeReport)
	if err := s.SaveTask(t1); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTask(t2); err != nil {
		t.Fatal(err)
	}

	tasks, err := s.ListTasks("session-1")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
}

func TestListTasksEmptySessionReturnsNil(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tasks, err := s.ListTasks("no-such-session")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no tasks, got %v", tasks)
	}
}

func TestSaveSessionIsAtomicNoLeftoverTempFile(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	session := model.NewSession("/tmp/project")
	if err := s.SaveSession(session); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if _, statErr := filepath.Glob(filepath.Join(dir, session.ID, "*.tmp")); statErr != nil {
		t.Fatalf("glob error: %v", statErr)
	} else {
		matches, _ := filepath.Glob(filepath.Join(dir, session.ID, "*.tmp"))
		if len(matches) != 0 {
			t.Errorf("expected no leftover temp files, found %v", matches)
		}
	}
}
