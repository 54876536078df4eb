// Package tasklog appends TaskLog entries to a per-session JSONL file and
// reconstructs a readable markdown transcript from them. Reading tolerates
// a corrupted line by skipping it rather than failing the whole scan.
package tasklog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmrun/pmrun/internal/model"
)

// FileName is the JSONL file name used under a session's directory.
const FileName = "task-log.jsonl"

// Path returns the task-log file path for a session directory.
func Path(sessionDir string) string {
	return filepath.Join(sessionDir, FileName)
}

// Append writes one TaskLog entry to the session's JSONL file, creating
// the file and its directory if needed. Each call opens, writes, and
// closes independently — the file is never truncated or rewritten, only
// grown, matching the append-only contract on TaskLog itself.
func Append(sessionDir string, entry *model.TaskLog) error {
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return fmt.Errorf("creating session directory %s: %w", sessionDir, err)
	}

	f, err := os.OpenFile(Path(sessionDir), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening task log for %s: %w", sessionDir, err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling task log entry: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending task log entry: %w", err)
	}
	return nil
}

// ReadAll scans a session's JSONL task log, skipping malformed lines
// rather than failing the whole read — a single corrupted entry must not
// hide the rest of the transcript.
func ReadAll(sessionDir string) ([]*model.TaskLog, error) {
	f, err := os.Open(Path(sessionDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening task log for %s: %w", sessionDir, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var entries []*model.TaskLog
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry model.TaskLog
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading task log for %s: %w", sessionDir, err)
	}
	return entries, nil
}
