// Package evidence implements the append-only evidence store: one
// directory per session under an evidence root, one JSON file per Evidence
// record, written atomically (temp file + rename).
//
// Writers are serialized per-session (a session's own evidence must be
// appended in order, and two goroutines racing to persist for the same
// session must not interleave partial writes); readers are unrestricted —
// any number of goroutines may list or fetch evidence concurrently.
package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pmrun/pmrun/internal/model"
)

// Store is the append-only evidence store rooted at a directory. The zero
// value is not usable; construct with New.
type Store struct {
	root string

	mu           sync.Mutex // guards sessionLocks
	sessionLocks map[string]*sync.Mutex
}

// New returns a Store rooted at root, creating it if necessary.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, model.NewKindError(model.KindEvidence, fmt.Errorf("cannot create evidence root: %w", err))
	}
	return &Store{root: root, sessionLocks: make(map[string]*sync.Mutex)}, nil
}

func (s *Store) lockFor(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.sessionLocks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.sessionLocks[sessionID] = l
	}
	return l
}

func (s *Store) sessionDir(sessionID string) string {
	return filepath.Join(s.root, sessionID, "evidence")
}

func (s *Store) evidencePath(sessionID, evidenceID string) string {
	return filepath.Join(s.sessionDir(sessionID), evidenceID+".json")
}

// Append persists e under sessionID. Writes for the same sessionID are
// serialized; e.VerifyHash() must already be true — Append refuses to
// persist an already-tampered record rather than discover the corruption
// only on a later read.
func (s *Store) Append(sessionID string, e *model.Evidence) error {
	if !e.VerifyHash() {
		return model.NewKindError(model.KindEvidence, fmt.Errorf("evidence %s fails hash verification at write time", e.ID))
	}

	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	dir := s.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return model.NewKindError(model.KindEvidence, fmt.Errorf("cannot create session evidence dir: %w", err))
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return model.NewKindError(model.KindEvidence, fmt.Errorf("cannot marshal evidence: %w", err))
	}

	path := s.evidencePath(sessionID, e.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return model.NewKindError(model.KindEvidence, fmt.Errorf("cannot write evidence temp file: %w", err))
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return model.NewKindError(model.KindEvidence, fmt.Errorf("cannot rename evidence temp file: %w", err))
	}
	return nil
}

// Get reads back one Evidence record by id and reports whether its stored
// hash still verifies against its stored artifacts — detecting on-disk
// tampering or corruption, not just malformed JSON.
func (s *Store) Get(sessionID, evidenceID string) (*model.Evidence, error) {
	data, err := os.ReadFile(s.evidencePath(sessionID, evidenceID))
	if err != nil {
		return nil, model.NewKindError(model.KindEvidence, fmt.Errorf("cannot read evidence %s: %w", evidenceID, err))
	}
	var e model.Evidence
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, model.NewKindError(model.KindEvidence, fmt.Errorf("cannot decode evidence %s: %w", evidenceID, err))
	}
	if !e.VerifyHash() {
		e.IntegrityValidated = false
		return &e, model.NewKindError(model.KindEvidence, fmt.Errorf("evidence %s failed hash verification on read: integrity failure", evidenceID))
	}
	return &e, nil
}

// List returns every Evidence record persisted for a session, ordered by
// Timestamp ascending (file system directory order is not guaranteed to
// match creation order, so List sorts explicitly). Unrestricted: no
// session-level lock is taken since these are read-only snapshots of
// already-written files.
func (s *Store) List(sessionID string) ([]*model.Evidence, error) {
	entries, err := os.ReadDir(s.sessionDir(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, model.NewKindError(model.KindEvidence, fmt.Errorf("cannot list evidence dir: %w", err))
	}

	var out []*model.Evidence
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := entry.Name()[:len(entry.Name())-len(".json")]
		e, err := s.Get(sessionID, id)
		if err != nil {
			// An individual corrupt/unreadable record is surfaced via
			// IntegrityFailures rather than aborting the whole listing —
			// the rest of a session's evidence is still trustworthy.
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// IntegrityFailures re-verifies every record for a session and returns the
// ids of any whose hash no longer matches, for reporting as
// evidence_inventory.integrity_failures.
func (s *Store) IntegrityFailures(sessionID string) ([]string, error) {
	entries, err := os.ReadDir(s.sessionDir(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, model.NewKindError(model.KindEvidence, fmt.Errorf("cannot list evidence dir: %w", err))
	}

	var failures []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := entry.Name()[:len(entry.Name())-len(".json")]
		if _, err := s.Get(sessionID, id); err != nil {
			failures = append(failures, id)
		}
	}
	return failures, nil
}
