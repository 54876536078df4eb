// Package lifecycle enforces the seven-phase session state machine:
// REQUIREMENT_ANALYSIS -> TASK_DECOMPOSITION -> PLANNING -> EXECUTION ->
// QA -> COMPLETION_VALIDATION -> REPORT. CompleteCurrentPhase is the only
// mutation, and a phase only advances once its submitted evidence meets
// that phase's minimum schema.
package lifecycle

import (
	"fmt"

	"github.com/pmrun/pmrun/internal/model"
)

// Recorder persists an evidence packet regardless of whether the phase
// transition it belongs to ultimately succeeds — evidence from any phase
// persists even on abort.
type Recorder interface {
	RecordPhaseEvidence(sessionID string, phase model.Phase, evidence PhaseEvidence, status model.SessionStatus) error
}

// Controller enforces phase ordering and evidence validity for one
// session. It never advances more than one phase per call and refuses to
// complete a phase other than the session's current one.
type Controller struct {
	session  *model.Session
	recorder Recorder
}

// New wraps session with a Controller. recorder may be nil, in which case
// evidence is not persisted (tests only — production always supplies one).
func New(session *model.Session, recorder Recorder) *Controller {
	return &Controller{session: session, recorder: recorder}
}

func phaseIndex(p model.Phase) int {
	for i, ph := range model.PhaseOrder {
		if ph == p {
			return i
		}
	}
	return -1
}

// CompleteCurrentPhase is the sole mutation of a session's phase. phase
// must name the session's current phase exactly — naming any other phase
// (ahead, or already completed) is a skip attempt and fails with
// PHASE_TRANSITION_INVALID without touching the session. evidence is
// validated against that phase's minimum schema; a malformed packet sets
// the session's status to INVALID and halts further phase attempts,
// though the evidence itself is still recorded.
func (c *Controller) CompleteCurrentPhase(phase model.Phase, evidence PhaseEvidence, status model.SessionStatus) error {
	if c.session.Status == model.SessionInvalid {
		return fmt.Errorf("session %s is already INVALID, no further phases may be attempted: %w", c.session.ID, model.ErrPhaseTransitionInvalid)
	}

	if phase != c.session.CurrentPhase {
		return fmt.Errorf("cannot complete phase %s while session is at %s: %w", phase, c.session.CurrentPhase, model.ErrPhaseTransitionInvalid)
	}

	validationErr := validatePhaseEvidence(phase, evidence)

	if c.recorder != nil {
		if err := c.recorder.RecordPhaseEvidence(c.session.ID, phase, evidence, status); err != nil {
			return fmt.Errorf("recording evidence for phase %s: %w", phase, err)
		}
	}

	if validationErr != nil {
		c.session.Status = model.SessionInvalid
		return fmt.Errorf("malformed evidence for phase %s: %w", phase, validationErr)
	}

	c.session.CompletedPhases = append(c.session.CompletedPhases, phase)
	c.session.Status = status

	idx := phaseIndex(phase)
	if idx == len(model.PhaseOrder)-1 {
		// REPORT was just completed; the session has no further phase.
		return nil
	}
	c.session.CurrentPhase = model.PhaseOrder[idx+1]
	return nil
}

// IsComplete reports whether every phase has been completed.
func (c *Controller) IsComplete() bool {
	return len(c.session.CompletedPhases) == len(model.PhaseOrder)
}
