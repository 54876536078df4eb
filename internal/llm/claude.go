package llm

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pmrun/pmrun/internal/utils"
)

// Claude implements the Backend interface for Claude Code CLI
type Claude struct {
	BinaryPath string
}

// NewClaude creates a new Claude backend
func NewClaude(binaryPath string) *Claude {
	if binaryPath == "" {
		binaryPath = "claude"
	}
	return &Claude{BinaryPath: utils.ResolveBinaryPath(binaryPath)}
}

func (c *Claude) Name() string {
	return "claude"
}

// Execute spawns the external CLI per the fixed invocation contract
// (--prompt, --project, --cwd, optional --model), with stdin closed at
// spawn time so the child can never block this process waiting on input
// that will never arrive — the fail-closed half of interactive-prompt
// handling, complementing the supervisor's pattern-matching half. Both
// stdout and stderr are piped back (rather than stderr passing through to
// this process's own) so the supervisor can line-scan both for interactive
// prompts and surface stderr as its own chunk stream.
func (c *Claude) Execute(ctx context.Context, opts ExecuteOptions) (stdout, stderr io.ReadCloser, err error) {
	args := c.buildArgs(opts)

	cmd := exec.CommandContext(ctx, c.BinaryPath, args...)
	cmd.Dir = opts.WorkDir
	cmd.Stdin = nil

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if strings.Contains(err.Error(), "executable file not found") {
			return nil, nil, utils.ClaudeNotFoundError()
		}
		return nil, nil, fmt.Errorf("failed to start claude: %w", err)
	}

	// stdout's Close waits for the command; stderr's Close only closes its
	// own pipe — both pipes must be fully drained before Wait is safe to
	// call, which the supervisor guarantees by closing stdout only after
	// both of its scan pumps have reached EOF.
	return &cmdReader{ReadCloser: stdoutPipe, cmd: cmd}, stderrPipe, nil
}

// ExecuteInteractive runs Claude Code in interactive mode, the one path
// that still connects the child to this process's own stdin/stdout.
func (c *Claude) ExecuteInteractive(ctx context.Context, opts ExecuteOptions) error {
	args := c.buildArgs(opts)

	cmd := exec.CommandContext(ctx, c.BinaryPath, args...)
	cmd.Dir = opts.WorkDir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// buildArgs renders the fixed [--prompt, --project, --cwd, --model?]
// invocation contract the external executor must be spawned with.
func (c *Claude) buildArgs(opts ExecuteOptions) []string {
	args := []string{"--prompt", opts.Prompt, "--project", opts.WorkDir, "--cwd", opts.WorkDir}

	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if len(opts.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(opts.AllowedTools, ","))
	}
	args = append(args, opts.ContextFiles...)

	return args
}

// cmdReader wraps an io.ReadCloser and waits for the command on close
type cmdReader struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (r *cmdReader) Close() error {
	r.ReadCloser.Close()
	return r.cmd.Wait()
}
