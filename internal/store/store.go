// Package store persists Session and Task state to disk, one directory
// per session under an evidence root: session.json (resume snapshot) and
// one task-<id>.json per task, each written atomically
// (write-via-temp-then-rename) and read back with strict
// DisallowUnknownFields decoding so a corrupted or hand-edited file
// fails loudly.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pmrun/pmrun/internal/model"
)

// Store roots persistence at a directory containing one subdirectory per
// session id.
type Store struct {
	root string
}

// New constructs a Store rooted at root, creating it if necessary.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating store root %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

func (s *Store) sessionDir(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

// SessionDir returns the directory a session's state (and, by convention,
// its task-log transcript) is rooted at.
func (s *Store) SessionDir(sessionID string) string {
	return s.sessionDir(sessionID)
}

func (s *Store) sessionPath(sessionID string) string {
	return filepath.Join(s.sessionDir(sessionID), "session.json")
}

func (s *Store) taskPath(sessionID, taskID string) string {
	return filepath.Join(s.sessionDir(sessionID), "task-"+taskID+".json")
}

// atomicWriteJSON marshals v with indentation and writes it to path via a
// temp-file-then-rename so a crash mid-write never leaves a truncated file
// at the final path.
func atomicWriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming temp file for %s: %w", path, err)
	}
	return nil
}

// readJSONStrict decodes path into v, rejecting unknown fields so a
// corrupted or hand-edited file fails loudly rather than silently losing
// data.
func readJSONStrict(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// SaveSession persists session's resume snapshot atomically.
func (s *Store) SaveSession(session *model.Session) error {
	return atomicWriteJSON(s.sessionPath(session.ID), session)
}

// LoadSession reads a previously persisted session.
func (s *Store) LoadSession(sessionID string) (*model.Session, error) {
	var session model.Session
	if err := readJSONStrict(s.sessionPath(sessionID), &session); err != nil {
		return nil, model.NewKindError(model.KindSession, err)
	}
	return &session, nil
}

// SaveTask persists one task's state under its session directory.
func (s *Store) SaveTask(task *model.Task) error {
	return atomicWriteJSON(s.taskPath(task.SessionID, task.ID), task)
}

// LoadTask reads a previously persisted task.
func (s *Store) LoadTask(sessionID, taskID string) (*model.Task, error) {
	var task model.Task
	if err := readJSONStrict(s.taskPath(sessionID, taskID), &task); err != nil {
		return nil, model.NewKindError(model.KindTask, err)
	}
	return &task, nil
}

// ListTasks returns every task persisted under sessionID, in no
// particular order.
func (s *Store) ListTasks(sessionID string) ([]*model.Task, error) {
	entries, err := os.ReadDir(s.sessionDir(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing session directory for %s: %w", sessionID, err)
	}

	var tasks []*model.Task
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !isTaskFile(name) {
			continue
		}
		var task model.Task
		if err := readJSONStrict(filepath.Join(s.sessionDir(sessionID), name), &task); err != nil {
			return nil, err
		}
		tasks = append(tasks, &task)
	}
	return tasks, nil
}

func isTaskFile(name string) bool {
	return len(name) > len("task-.json") && name[:5] == "task-" && filepath.Ext(name) == ".json"
}

// ListSessionIDs returns every session id with a persisted session.json
// under this store's root, in no particular order.
func (s *Store) ListSessionIDs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing store root %s: %w", s.root, err)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, e.Name(), "session.json")); err == nil {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// LatestSessionID returns the id of the most recently started session, or
// "" if the store holds none.
func (s *Store) LatestSessionID() (string, error) {
	ids, err := s.ListSessionIDs()
	if err != nil || len(ids) == 0 {
		return "", err
	}

	var latestID string
	var latestTime time.Time
	for _, id := range ids {
		sess, err := s.LoadSession(id)
		if err != nil {
			continue
		}
		if latestID == "" || sess.StartedAt.After(latestTime) {
			latestID = id
			latestTime = sess.StartedAt
		}
	}
	return latestID, nil
}
