package tasklog

import (
	"os"
	"strings"
	"testing"

	"github.com/pmrun/pmrun/internal/model"
)

func TestAppendAndReadAllRoundTrips(t *testing.T) {
	dir := t.TempDir()

	e1 := model.NewTaskLog("task-1", model.EventTaskStarted, model.VisibilitySummary, "task started")
	e2 := model.NewTaskLog("task-1", model.EventExecutorOutput, model.VisibilityFull, "raw stdout line")

	if err := Append(dir, e1); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := Append(dir, e2); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := ReadAll(dir)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Text != "task started" || entries[1].Text != "raw stdout line" {
		t.Errorf("entries out of order or wrong content: %+v", entries)
	}
}

func TestReadAllMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	entries, err := ReadAll(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %v", entries)
	}
}

func TestReadAllSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	good := model.NewTaskLog("task-1", model.EventTaskCompleted, model.VisibilitySummary, "done")
	if err := Append(dir, good); err != nil {
		t.Fatal(err)
	}
	// Inject a malformed line directly.
	f, err := os.OpenFile(Path(dir), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{not valid json\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	entries, err := ReadAll(dir)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected the malformed line to be skipped, got %d entries", len(entries))
	}
}

func TestRenderTranscriptSummaryOnlyOmitsFullEntries(t *testing.T) {
	entries := []*model.TaskLog{
		model.NewTaskLog("task-1", model.EventTaskStarted, model.VisibilitySummary, "started"),
		model.NewTaskLog("task-1", model.EventExecutorOutput, model.VisibilityFull, "verbose stdout"),
	}
	summary := RenderTranscript(entries, true)
	if strings.Contains(summary, "verbose stdout") {
		t.Error("summary view must omit full-visibility entries")
	}
	full := RenderTranscript(entries, false)
	if !strings.Contains(full, "verbose stdout") {
		t.Error("full view must include full-visibility entries")
	}
}
