// Package executor invokes the external CLI with a task's prompt, streams
// its stdio through the process supervisor, verifies any file changes
// against disk, and returns an ExecutorResult the runner can trust without
// relying on the executor's own narrative.
package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pmrun/pmrun/internal/agentpool"
	"github.com/pmrun/pmrun/internal/guard"
	"github.com/pmrun/pmrun/internal/llm"
	"github.com/pmrun/pmrun/internal/model"
	"github.com/pmrun/pmrun/internal/stream"
	"github.com/pmrun/pmrun/internal/supervisor"
)

// claimedFilenamePattern matches a token that could plausibly name a file
// in the executor's own narrative: it needs an extension, unlike the
// guard's looser candidate-filename heuristic.
var claimedFilenamePattern = regexp.MustCompile(`[A-Za-z0-9_\-./]+\.[A-Za-z0-9]{1,8}`)

// Config holds executor configuration.
type Config struct {
	ClaudeBinary string
	Model        string
	ProjectRoot  string

	// SoftTimeout and SilenceLogInterval, when non-zero, override the
	// values EstimateProfile would otherwise choose (SOFT_TIMEOUT_MS /
	// SILENCE_LOG_INTERVAL_MS at the CLI boundary) — the overall timeout
	// is never overridable here, only the two warning-only timers.
	SoftTimeout        time.Duration
	SilenceLogInterval time.Duration

	// Pool, if non-nil, gates concurrent external-executor spawns (the L2
	// tier); saturation fails the task immediately rather than queueing.
	Pool *agentpool.Pool
}

// DefaultConfig returns default executor configuration rooted at workDir.
func DefaultConfig(workDir string) *Config {
	return &Config{ClaudeBinary: "claude", ProjectRoot: workDir}
}

// Executor runs tasks through an llm.Backend under process supervision.
type Executor struct {
	config  *Config
	backend llm.Backend
}

// New creates an Executor backed by the given llm.Backend (a real Claude
// binary or a MockBackend for tests).
func New(config *Config, backend llm.Backend) *Executor {
	return &Executor{config: config, backend: backend}
}

// Run executes one task end-to-end: pre-flight gate, spawn, supervise,
// snapshot-verify, status derivation. strm, if non-nil, receives every
// chunk produced along the way.
func (e *Executor) Run(ctx context.Context, task *model.Task, strm *stream.Stream) *model.ExecutorResult {
	start := time.Now()

	emit := func(s model.ChunkStream, text string) {
		if strm == nil {
			return
		}
		strm.Publish(model.ExecutorOutputChunk{
			Timestamp: time.Now(),
			TaskID:    task.ID,
			SessionID: task.SessionID,
			Stream:    s,
			Text:      text,
		})
	}

	if c := guard.PreflightGate(task.Prompt, e.config.ProjectRoot); c != nil {
		emit(model.StreamPreflight, fmt.Sprintf("clarification required: %s", c.Reason))
		return &model.ExecutorResult{
			Executed:         false,
			Status:           model.StatusNoEvidence,
			WorkingDirectory: e.config.ProjectRoot,
			Clarification:    c,
		}
	}

	before, err := Snapshot(e.config.ProjectRoot)
	if err != nil {
		emit(model.StreamError, fmt.Sprintf("pre-spawn snapshot failed: %v", err))
		return &model.ExecutorResult{
			Executed:         false,
			Status:           model.StatusError,
			WorkingDirectory: e.config.ProjectRoot,
			Output:           err.Error(),
			DurationMs:       time.Since(start).Milliseconds(),
		}
	}

	profile := supervisor.EstimateProfile(task.Prompt, task.Type)
	if e.config.SoftTimeout > 0 {
		profile.IdleTimeout = e.config.SoftTimeout
	}
	if e.config.SilenceLogInterval > 0 {
		profile.SilenceLogInterval = e.config.SilenceLogInterval
	}

	if e.config.Pool != nil {
		if err := e.config.Pool.Acquire(); err != nil {
			emit(model.StreamError, err.Error())
			return &model.ExecutorResult{
				Executed:         false,
				Status:           model.StatusError,
				WorkingDirectory: e.config.ProjectRoot,
				Output:           err.Error(),
				DurationMs:       time.Since(start).Milliseconds(),
			}
		}
		defer e.config.Pool.Release()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stdout, stderr, err := e.backend.Execute(runCtx, llm.ExecuteOptions{
		Prompt:  task.Prompt,
		Model:   e.config.Model,
		WorkDir: e.config.ProjectRoot,
	})
	if err != nil {
		emit(model.StreamError, fmt.Sprintf("spawn failed: %v", err))
		return &model.ExecutorResult{
			Executed:         false,
			Status:           model.StatusError,
			WorkingDirectory: e.config.ProjectRoot,
			Output:           err.Error(),
			DurationMs:       time.Since(start).Milliseconds(),
		}
	}

	var outputBuf strings.Builder
	emit(model.StreamSpawn, "executor spawned")

	outcome := supervisor.Supervise(runCtx, profile, stdout, stderr, cancel,
		func(s model.ChunkStream, text string) {
			if s == model.StreamStdout {
				outputBuf.WriteString(text)
				outputBuf.WriteString("\n")
			}
			emit(s, text)
		},
	)

	after, snapErr := Snapshot(e.config.ProjectRoot)
	if snapErr != nil {
		after = before
	}

	detected := DetectedModified(before, after)
	claimed := extractClaimedFiles(outputBuf.String())
	// Claims are usually project-relative; resolve them against the project
	// root so they compare against the snapshot's absolute paths, and report
	// unverified ones under the name the executor used.
	claimedPaths := make([]string, len(claimed))
	claimedName := make(map[string]string, len(claimed))
	for i, c := range claimed {
		p := c
		if !filepath.IsAbs(p) {
			p = filepath.Join(e.config.ProjectRoot, p)
		}
		claimedPaths[i] = p
		claimedName[p] = c
	}
	verified, unverifiedPaths := VerifyFiles(detected, claimedPaths)
	var unverified []string
	for _, p := range unverifiedPaths {
		unverified = append(unverified, claimedName[p])
	}

	processErrored := outcome.ExitErr != nil && !outcome.Blocked
	status := DeriveStatus(verified, unverified, len(claimed), processErrored, outcome.Blocked)
	status = guard.BlockedGate(task.Type, status)

	result := &model.ExecutorResult{
		Executed:         true,
		Output:           outputBuf.String(),
		FilesModified:    claimed,
		VerifiedFiles:    verified,
		UnverifiedFiles:  unverified,
		DurationMs:       time.Since(start).Milliseconds(),
		Status:           status,
		WorkingDirectory: e.config.ProjectRoot,
		BlockedReason:    outcome.BlockedReason,
		TerminatedBy:     outcome.TerminatedBy,
	}

	if status == model.StatusComplete && !result.SatisfiesCompletionAuthority() {
		// Defensive: DeriveStatus already enforces this, but the
		// Completion Authority invariant must never be bypassable by a
		// future change to DeriveStatus alone.
		result.Status = model.StatusNoEvidence
	}

	return result
}

// extractClaimedFiles pulls filenames out of the executor's own narrative
// using claimedFilenamePattern (a token with an extension) — the
// executor's self-report is never trusted as the final word, only as
// a hint of what to verify.
func extractClaimedFiles(output string) []string {
	candidates := claimedFilenamePattern.FindAllString(output, -1)
	seen := make(map[string]bool)
	var out []string
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
