package executor

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmrun/pmrun/internal/model"
)

// fileStat is the (mtime, size) pair a snapshot records per path.
type fileStat struct {
	ModTimeMs int64
	Size      int64
}

// Snapshot maps every non-hidden, non-node_modules file under root (at any
// depth) to its (mtime_ms, size). Taken once before spawn and once after,
// the two snapshots are diffed to detect what an executor actually
// touched.
func Snapshot(root string) (map[string]fileStat, error) {
	out := make(map[string]fileStat)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A path that vanished mid-walk (race with the executor) is
			// skipped, not fatal — the snapshot is best-effort by nature.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if name != "." && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		out[path] = fileStat{ModTimeMs: info.ModTime().UnixMilli(), Size: info.Size()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DetectedModified returns the paths present in after that are either new
// relative to before or whose (mtime, size) pair changed.
func DetectedModified(before, after map[string]fileStat) []string {
	var changed []string
	for path, stat := range after {
		prior, existed := before[path]
		if !existed || prior != stat {
			changed = append(changed, path)
		}
	}
	return changed
}

const contentPreviewBytes = 512

// VerifyFiles performs an explicit existence check over the union of
// detected-modified paths and the executor's own self-claimed
// filesModified, producing VerifiedFiles (every checked path, whether it
// exists or not) and the subset of filesModified that did not verify as
// existing (UnverifiedFiles).
func VerifyFiles(detectedModified, filesModified []string) (verified []model.VerifiedFile, unverified []string) {
	seen := make(map[string]bool)
	candidates := make([]string, 0, len(detectedModified)+len(filesModified))
	for _, p := range detectedModified {
		if !seen[p] {
			seen[p] = true
			candidates = append(candidates, p)
		}
	}
	for _, p := range filesModified {
		if !seen[p] {
			seen[p] = true
			candidates = append(candidates, p)
		}
	}

	verifiedExists := make(map[string]bool, len(candidates))
	for _, path := range candidates {
		vf := model.VerifiedFile{Path: path}
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			vf.Exists = true
			vf.Size = info.Size()
			vf.ContentPreview = readPreview(path)
		}
		verified = append(verified, vf)
		verifiedExists[path] = vf.Exists
	}

	for _, claimed := range filesModified {
		if !verifiedExists[claimed] {
			unverified = append(unverified, claimed)
		}
	}
	return verified, unverified
}

func readPreview(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	buf := make([]byte, contentPreviewBytes)
	n, _ := f.Read(buf)
	return string(buf[:n])
}

// DeriveStatus is the *only* permitted mapping from (verifiedFiles,
// unverifiedFiles, processError, blocked) to an ExecutorStatus. Order
// matters: each branch is checked in the sequence below.
func DeriveStatus(verified []model.VerifiedFile, unverified []string, claimedFiles int, processErrored bool, blocked bool) model.ExecutorStatus {
	hasVerifiedExisting := false
	for _, v := range verified {
		if v.Exists {
			hasVerifiedExisting = true
			break
		}
	}

	switch {
	case hasVerifiedExisting:
		return model.StatusComplete
	case claimedFiles > 0 && !hasVerifiedExisting:
		return model.StatusNoEvidence
	case processErrored:
		return model.StatusError
	case blocked:
		return model.StatusBlocked
	default:
		return model.StatusIncomplete
	}
}
