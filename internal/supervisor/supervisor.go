// Package supervisor races a child process's natural exit against three
// independent timers and an explicit cancellation token, wrapping a
// spawn-and-read loop so that silence alone is never grounds for
// termination — every run stays supervised rather than trusting the
// child to exit on its own.
package supervisor

import (
	"bufio"
	"context"
	"io"
	"regexp"
	"sync"
	"time"

	"github.com/pmrun/pmrun/internal/model"
)

// interactivePatterns match CLI output that indicates the child is waiting
// on a human at a terminal it will never get. The child can write these to
// either stdout or stderr, so both streams are scanned against them.
var interactivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\(y/n\)`),
	regexp.MustCompile(`(?i)press (enter|any key)`),
	regexp.MustCompile(`(?i)password:`),
	regexp.MustCompile(`(?i)continue\?\s*$`),
	regexp.MustCompile(`(?i)waiting for (input|confirmation)`),
}

func matchesInteractivePrompt(line string) bool {
	for _, p := range interactivePatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// EmitFunc publishes one chunk of executor output. stream distinguishes
// real stdio (stdout vs stderr) from the supervisor's own synthetic events
// (heartbeat, soft-timeout warning, spawn/termination notices).
type EmitFunc func(stream model.ChunkStream, text string)

// Outcome is the supervisor's verdict once the race concludes.
type Outcome struct {
	ChildExited   bool
	ExitErr       error
	Blocked       bool
	BlockedReason *model.BlockedReason
	TerminatedBy  *model.TerminatedBy
}

func ptr[T any](v T) *T { return &v }

// line is one scanned line tagged with the stream it came from.
type line struct {
	stream model.ChunkStream
	text   string
}

// Supervise reads lines from stdout and stderr (io.ReadClosers whose Close
// blocks until the underlying child process has been reaped — the
// cmdReader pattern from internal/llm), racing the child's natural EOF on
// both streams against the overall timeout, interactive-prompt detection,
// and ctx cancellation. The soft timeout and silence-log interval never
// terminate anything — they only emit chunks via emit. cancel is invoked at
// most once to force termination for a reason other than the child's own
// exit; it must cause both streams to reach EOF soon after (e.g. via
// exec.CommandContext killing the process group).
func Supervise(ctx context.Context, profile Profile, stdout, stderr io.ReadCloser, cancel func(), emit EmitFunc) Outcome {
	lineCh := make(chan line, 256)

	var pumpWG sync.WaitGroup
	pumpWG.Add(2)
	pump := func(r io.Reader, s model.ChunkStream) {
		defer pumpWG.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lineCh <- line{stream: s, text: scanner.Text()}
		}
	}
	go pump(stdout, model.StreamStdout)
	go pump(stderr, model.StreamStderr)

	pumpDone := make(chan struct{})
	go func() {
		pumpWG.Wait()
		close(lineCh)
		close(pumpDone)
	}()

	waitDone := make(chan error, 1)
	go func() {
		<-pumpDone
		stdoutErr := stdout.Close()
		stderrErr := stderr.Close()
		if stdoutErr != nil {
			waitDone <- stdoutErr
			return
		}
		waitDone <- stderrErr
	}()

	var overallTimer *time.Timer
	var overallC <-chan time.Time
	if !profile.DisableOverallTimeout {
		overallTimer = time.NewTimer(profile.OverallTimeout)
		overallC = overallTimer.C
		defer overallTimer.Stop()
	}

	softTimer := time.NewTimer(profile.IdleTimeout)
	defer softTimer.Stop()
	softFired := false

	heartbeat := time.NewTicker(profile.SilenceLogInterval)
	defer heartbeat.Stop()

	terminate := func(reason *model.TerminatedBy, blocked bool, blockedReason *model.BlockedReason) Outcome {
		cancel()
		err := <-waitDone
		return Outcome{
			ChildExited:   true,
			ExitErr:       err,
			Blocked:       blocked,
			BlockedReason: blockedReason,
			TerminatedBy:  reason,
		}
	}

	lines := lineCh
	for {
		select {
		case l, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			emit(l.stream, l.text)
			if !softFired {
				softTimer.Reset(profile.IdleTimeout)
			}
			heartbeat.Reset(profile.SilenceLogInterval)

			if matchesInteractivePrompt(l.text) {
				return terminate(ptr(model.TerminatedByReplFailClosed), true, ptr(model.BlockedInteractivePrompt))
			}

		case err := <-waitDone:
			return Outcome{ChildExited: true, ExitErr: err}

		case <-softTimer.C:
			// Warning only: softFired stops us from resetting it again,
			// but it never terminates anything.
			softFired = true
			emit(model.StreamSystem, "soft timeout reached: task is taking longer than expected")

		case <-heartbeat.C:
			emit(model.StreamSystem, "heartbeat: still running, no output yet")

		case <-overallC:
			return terminate(ptr(model.TerminatedByOverallTimeout), true, ptr(model.BlockedTimeout))

		case <-ctx.Done():
			return terminate(ptr(model.TerminatedByCancellation), false, nil)
		}
	}
}
