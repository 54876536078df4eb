package completion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// NewRunID formats a run id as YYYYMMDD-HHmmss-MMM-<shortsha>-<cmdHash>,
// tying a QA-gate result to the exact code state (shortSHA, e.g. from
// `git rev-parse --short HEAD`) and command (cmd, the gate's shell
// command) that produced it.
func NewRunID(at time.Time, shortSHA, cmd string) string {
	u := at.UTC()
	return fmt.Sprintf("%s-%03d-%s-%s", u.Format("20060102-150405"), u.Nanosecond()/1e6, shortSHA, cmdHash(cmd))
}

// cmdHash returns the first 8 hex characters of the command's sha256,
// short enough to read in a run id, long enough to avoid accidental
// collisions between distinct gate commands.
func cmdHash(cmd string) string {
	sum := sha256.Sum256([]byte(cmd))
	return hex.EncodeToString(sum[:])[:8]
}
