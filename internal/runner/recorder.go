package runner

import (
	"encoding/json"
	"fmt"

	"github.com/pmrun/pmrun/internal/evidence"
	"github.com/pmrun/pmrun/internal/lifecycle"
	"github.com/pmrun/pmrun/internal/model"
)

// phaseRecorderExecutorID tags every phase-completion evidence record as
// coming from the façade itself rather than from any one task's executor.
const phaseRecorderExecutorID = "runner"

// phaseRecord is the JSON shape persisted as one evidence artifact per
// completed phase.
type phaseRecord struct {
	Phase    model.Phase             `json:"phase"`
	Evidence lifecycle.PhaseEvidence `json:"evidence"`
	Status   model.SessionStatus     `json:"status"`
}

// EvidenceRecorder adapts an evidence.Store into a lifecycle.Recorder:
// every CompleteCurrentPhase call, successful or not, is persisted as an
// OpPhaseCompletion evidence record under the session's evidence
// directory — evidence from an INVALID phase is kept exactly like
// evidence from a valid one, per the lifecycle controller's own contract.
type EvidenceRecorder struct {
	Store *evidence.Store
}

// RecordPhaseEvidence implements lifecycle.Recorder.
func (r *EvidenceRecorder) RecordPhaseEvidence(sessionID string, phase model.Phase, ev lifecycle.PhaseEvidence, status model.SessionStatus) error {
	payload, err := json.Marshal(phaseRecord{Phase: phase, Evidence: ev, Status: status})
	if err != nil {
		return fmt.Errorf("marshaling phase evidence for %s: %w", phase, err)
	}

	e := model.NewEvidence(model.OpPhaseCompletion, phaseRecorderExecutorID, []model.Artifact{{
		Path:    string(phase),
		Content: string(payload),
		Size:    int64(len(payload)),
	}})
	return r.Store.Append(sessionID, e)
}
