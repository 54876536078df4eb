package runner

import (
	"context"
	"testing"

	"github.com/pmrun/pmrun/internal/lifecycle"
	"github.com/pmrun/pmrun/internal/model"
)

// recordingRecorder satisfies lifecycle.Recorder without persisting
// anything, just counting calls so tests can assert every phase fired.
type recordingRecorder struct {
	phases []model.Phase
}

func (r *recordingRecorder) RecordPhaseEvidence(_ string, phase model.Phase, _ lifecycle.PhaseEvidence, _ model.SessionStatus) error {
	r.phases = append(r.phases, phase)
	return nil
}

func TestRunAllTasksCompleteYieldsCompleteSession(t *testing.T) {
	session := model.NewSession("/tmp/project")
	tasks := []*model.Task{mkTask("a"), mkTask("b", "a")}
	tr := &scriptedTaskRunner{statuses: map[string]model.ReviewFinalStatus{}}
	rec := &recordingRecorder{}

	rn := New(session, rec, tr, nil, Config{Concurrency: 2})
	result, err := rn.Run(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != ExitComplete {
		t.Errorf("ExitCode = %d, want ExitComplete", result.ExitCode)
	}
	if session.Status != model.SessionComplete {
		t.Errorf("session status = %s, want COMPLETE", session.Status)
	}
	if len(rec.phases) != len(model.PhaseOrder) {
		t.Errorf("expected %d recorded phases, got %d", len(model.PhaseOrder), len(rec.phases))
	}
}

func TestRunAnyTaskIncompleteYieldsIncompleteExitCode(t *testing.T) {
	session := model.NewSession("/tmp/project")
	tasks := []*model.Task{mkTask("a"), mkTask("b")}
	tr := &scriptedTaskRunner{statuses: map[string]model.ReviewFinalStatus{
		"b": model.ReviewFinalIncomplete,
	}}

	rn := New(session, nil, tr, nil, Config{Concurrency: 2})
	result, err := rn.Run(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != ExitIncomplete {
		t.Errorf("ExitCode = %d, want ExitIncomplete", result.ExitCode)
	}
}

func TestRunUnknownDependencyFailsBeforeScheduling(t *testing.T) {
	session := model.NewSession("/tmp/project")
	tasks := []*model.Task{mkTask("a", "ghost")}
	tr := &scriptedTaskRunner{statuses: map[string]model.ReviewFinalStatus{}}

	rn := New(session, nil, tr, nil, Config{Concurrency: 1})
	if _, err := rn.Run(context.Background(), tasks); err == nil {
		t.Fatal("expected an error for an unresolvable dependency")
	}
}

func TestExitCodeForMapsEveryStatus(t *testing.T) {
	cases := map[model.SessionStatus]ExitCode{
		model.SessionComplete:   ExitComplete,
		model.SessionError:      ExitError,
		model.SessionIncomplete: ExitIncomplete,
		model.SessionNoEvidence: ExitIncomplete,
		model.SessionInvalid:    ExitInvalid,
	}
	for status, want := range cases {
		if got := ExitCodeFor(status); got != want {
			t.Errorf("ExitCodeFor(%s) = %d, want %d", status, got, want)
		}
	}
}
