package supervisor

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pmrun/pmrun/internal/model"
)

// fakeChild is an io.ReadCloser standing in for the cmdReader pattern in
// internal/llm: Close() blocks until the child "exits" and returns its
// wait error, exactly like cmdReader.Close() calling cmd.Wait().
type fakeChild struct {
	io.Reader
	exitErr  error
	exited   chan struct{}
	closeErr chan error
}

func newFakeChild(text string) *fakeChild {
	return &fakeChild{Reader: strings.NewReader(text), exited: make(chan struct{}, 1), closeErr: make(chan error, 1)}
}

func (f *fakeChild) Close() error {
	select {
	case err := <-f.closeErr:
		return err
	default:
		return nil
	}
}

// kill simulates exec.CommandContext's context-cancellation kill: the
// reader has already hit EOF (it's a strings.Reader), so the pump will
// finish on its own; kill just queues the Wait() error Close() returns.
func (f *fakeChild) kill(err error) {
	select {
	case f.closeErr <- err:
	default:
	}
}

// emptyStderr stands in for a child that never writes to stderr.
func emptyStderr() io.ReadCloser { return io.NopCloser(strings.NewReader("")) }

func collectEmits(t *testing.T) (EmitFunc, func() []string) {
	var mu sync.Mutex
	var got []string
	return func(stream model.ChunkStream, text string) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, text)
		}, func() []string {
			mu.Lock()
			defer mu.Unlock()
			out := make([]string, len(got))
			copy(out, got)
			return out
		}
}

func TestSuperviseChildExitsNormally(t *testing.T) {
	profile := Profile{IdleTimeout: time.Second, OverallTimeout: 2 * time.Second, SilenceLogInterval: time.Second}
	child := newFakeChild("line one\nline two\n")
	terminated := false

	emit, _ := collectEmits(t)
	outcome := Supervise(context.Background(), profile, child, emptyStderr(), func() { terminated = true }, emit)

	if !outcome.ChildExited {
		t.Error("expected ChildExited = true")
	}
	if outcome.Blocked {
		t.Error("normal exit should not be Blocked")
	}
	if terminated {
		t.Error("cancel() should not be called on a natural exit")
	}
}

func TestSuperviseInteractivePromptTerminates(t *testing.T) {
	profile := Profile{IdleTimeout: 5 * time.Second, OverallTimeout: 5 * time.Second, SilenceLogInterval: 5 * time.Second}
	child := newFakeChild("some progress\nDo you want to continue? (y/n)\n")
	var cancelCalled bool
	var mu sync.Mutex

	emit, _ := collectEmits(t)
	outcome := Supervise(context.Background(), profile, child, emptyStderr(), func() {
		mu.Lock()
		cancelCalled = true
		mu.Unlock()
		child.kill(errors.New("killed"))
	}, emit)

	if !outcome.Blocked {
		t.Fatal("expected Blocked = true on interactive prompt")
	}
	if outcome.BlockedReason == nil || *outcome.BlockedReason != model.BlockedInteractivePrompt {
		t.Errorf("BlockedReason = %v, want INTERACTIVE_PROMPT", outcome.BlockedReason)
	}
	if outcome.TerminatedBy == nil || *outcome.TerminatedBy != model.TerminatedByReplFailClosed {
		t.Errorf("TerminatedBy = %v, want REPL_FAIL_CLOSED", outcome.TerminatedBy)
	}
	mu.Lock()
	defer mu.Unlock()
	if !cancelCalled {
		t.Error("cancel() was not called")
	}
}

func TestSuperviseOverallTimeoutTerminates(t *testing.T) {
	profile := Profile{IdleTimeout: time.Hour, OverallTimeout: 30 * time.Millisecond, SilenceLogInterval: time.Hour}
	child := newFakeChild("")

	emit, _ := collectEmits(t)
	outcome := Supervise(context.Background(), profile, child, emptyStderr(), func() {
		child.kill(errors.New("killed by overall timeout"))
	}, emit)

	if !outcome.Blocked {
		t.Fatal("expected Blocked = true on overall timeout")
	}
	if outcome.BlockedReason == nil || *outcome.BlockedReason != model.BlockedTimeout {
		t.Errorf("BlockedReason = %v, want TIMEOUT", outcome.BlockedReason)
	}
	if outcome.TerminatedBy == nil || *outcome.TerminatedBy != model.TerminatedByOverallTimeout {
		t.Errorf("TerminatedBy = %v, want OVERALL_TIMEOUT", outcome.TerminatedBy)
	}
}

// blockingReader never returns EOF on its own, standing in for a child
// process that is still silently running.
type blockingReader struct {
	unblock chan struct{}
}

func (r *blockingReader) Read(p []byte) (int, error) {
	<-r.unblock
	return 0, io.EOF
}

func TestSuperviseSilenceAloneNeverTerminates(t *testing.T) {
	// Overall timeout disabled; silence interval fires many times but must
	// never terminate the child on its own.
	profile := Profile{IdleTimeout: 10 * time.Millisecond, SilenceLogInterval: 10 * time.Millisecond, DisableOverallTimeout: true}
	reader := &blockingReader{unblock: make(chan struct{})}
	child := &fakeChild{Reader: reader, exited: make(chan struct{}, 1), closeErr: make(chan error, 1)}
	terminated := false

	emit, getEmits := collectEmits(t)

	go func() {
		time.Sleep(150 * time.Millisecond)
		close(reader.unblock)
	}()

	outcome := Supervise(context.Background(), profile, child, emptyStderr(), func() { terminated = true }, emit)

	if terminated {
		t.Error("silence alone must never terminate the child")
	}
	if !outcome.ChildExited {
		t.Error("expected the child's own exit to conclude the run")
	}
	emits := getEmits()
	sawHeartbeat := false
	for _, e := range emits {
		if strings.Contains(e, "heartbeat") {
			sawHeartbeat = true
		}
	}
	if !sawHeartbeat {
		t.Error("expected at least one heartbeat emission during silence")
	}
}

func TestSuperviseCancellationTerminates(t *testing.T) {
	profile := Profile{IdleTimeout: time.Hour, OverallTimeout: time.Hour, SilenceLogInterval: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	reader := &blockingReader{unblock: make(chan struct{})}
	child := &fakeChild{Reader: reader, exited: make(chan struct{}, 1), closeErr: make(chan error, 1)}

	emit, _ := collectEmits(t)
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	outcome := Supervise(ctx, profile, child, emptyStderr(), func() {
		close(reader.unblock)
	}, emit)

	if outcome.TerminatedBy == nil || *outcome.TerminatedBy != model.TerminatedByCancellation {
		t.Errorf("TerminatedBy = %v, want CANCELLATION", outcome.TerminatedBy)
	}
}

func TestSuperviseEmitsStderrLinesOnStderrStream(t *testing.T) {
	profile := Profile{IdleTimeout: time.Second, OverallTimeout: 2 * time.Second, SilenceLogInterval: time.Second}
	stdout := newFakeChild("stdout line\n")
	stderr := io.NopCloser(strings.NewReader("stderr line\n"))

	var mu sync.Mutex
	var stdoutSeen, stderrSeen []string
	emit := func(stream model.ChunkStream, text string) {
		mu.Lock()
		defer mu.Unlock()
		switch stream {
		case model.StreamStdout:
			stdoutSeen = append(stdoutSeen, text)
		case model.StreamStderr:
			stderrSeen = append(stderrSeen, text)
		}
	}

	outcome := Supervise(context.Background(), profile, stdout, stderr, func() {}, emit)

	if !outcome.ChildExited {
		t.Fatal("expected ChildExited = true")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(stdoutSeen) != 1 || stdoutSeen[0] != "stdout line" {
		t.Errorf("stdoutSeen = %v, want [stdout line]", stdoutSeen)
	}
	if len(stderrSeen) != 1 || stderrSeen[0] != "stderr line" {
		t.Errorf("stderrSeen = %v, want [stderr line]", stderrSeen)
	}
}

func TestSuperviseDetectsInteractivePromptOnStderr(t *testing.T) {
	profile := Profile{IdleTimeout: 5 * time.Second, OverallTimeout: 5 * time.Second, SilenceLogInterval: 5 * time.Second}
	stdout := newFakeChild("")
	stderr := io.NopCloser(strings.NewReader("password:\n"))

	emit, _ := collectEmits(t)
	outcome := Supervise(context.Background(), profile, stdout, stderr, func() {
		stdout.kill(errors.New("killed"))
	}, emit)

	if !outcome.Blocked {
		t.Fatal("expected Blocked = true on an interactive prompt written to stderr")
	}
	if outcome.BlockedReason == nil || *outcome.BlockedReason != model.BlockedInteractivePrompt {
		t.Errorf("BlockedReason = %v, want INTERACTIVE_PROMPT", outcome.BlockedReason)
	}
}

func TestEstimateProfileKeywords(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		typ    model.TaskType
		want   time.Duration
	}{
		{"small keyword", "fix a typo in README", model.TaskTypeLightEdit, smallProfile.OverallTimeout},
		{"large keyword", "refactor the whole module architecture", model.TaskTypeImplementation, largeProfile.OverallTimeout},
		{"xlarge keyword", "migrate the entire codebase to the new API", model.TaskTypeImplementation, xlargeProfile.OverallTimeout},
		{"default medium", "add a helper function", model.TaskTypeImplementation, mediumProfile.OverallTimeout},
		{"dangerous op bumped to at least large", "read the config", model.TaskTypeDangerousOp, largeProfile.OverallTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateProfile(tt.prompt, tt.typ)
			if got.OverallTimeout != tt.want {
				t.Errorf("EstimateProfile(%q).OverallTimeout = %v, want %v", tt.prompt, got.OverallTimeout, tt.want)
			}
		})
	}
}
