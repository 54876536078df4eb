package llm

import (
	"context"
	"io"
	"strings"
)

// MockBackend is a deterministic Backend for tests and for CLI_TEST_MODE: a
// scripted backend that returns canned output without spawning a real
// process.
type MockBackend struct {
	// Output is returned verbatim from Execute, one call at a time; if
	// fewer entries than calls, the last entry repeats.
	Output []string
	// Err, if set, is returned by Execute instead of output.
	Err error

	// SideEffect, if set, runs synchronously inside Execute before the
	// reader is returned — standing in for the filesystem changes a real
	// CLI invocation would have made, since MockBackend has no process of
	// its own to produce them.
	SideEffect func()

	calls int
}

// NewMockBackend returns a MockBackend that yields output in sequence.
func NewMockBackend(output ...string) *MockBackend {
	return &MockBackend{Output: output}
}

func (m *MockBackend) Name() string { return "mock" }

func (m *MockBackend) Execute(ctx context.Context, opts ExecuteOptions) (stdout, stderr io.ReadCloser, err error) {
	if m.Err != nil {
		return nil, nil, m.Err
	}
	if m.SideEffect != nil {
		m.SideEffect()
	}
	idx := m.calls
	if idx >= len(m.Output) {
		idx = len(m.Output) - 1
	}
	m.calls++
	text := ""
	if idx >= 0 {
		text = m.Output[idx]
	}
	return io.NopCloser(strings.NewReader(text)), io.NopCloser(strings.NewReader("")), nil
}

func (m *MockBackend) ExecuteInteractive(ctx context.Context, opts ExecuteOptions) error {
	return m.Err
}

// Calls reports how many times Execute has been invoked.
func (m *MockBackend) Calls() int { return m.calls }
