package completion

import (
	"fmt"
	"time"

	"github.com/pmrun/pmrun/internal/model"
)

// Now is overridable in tests; production code always uses time.Now.
var Now = time.Now

// StaleRunError reports a gate result whose run_id does not match the
// run id the rest of the batch agreed on (AC2), or that the submitted
// gates disagree among themselves about which run_id is current (AC4).
type StaleRunError struct {
	ExpectedRunID string
	ActualRunID   string
	Gate          string
}

func (e *StaleRunError) Error() string {
	return fmt.Sprintf("stale run id for gate %q: expected %q, got %q", e.Gate, e.ExpectedRunID, e.ActualRunID)
}

func (e *StaleRunError) Unwrap() error { return model.ErrStaleRun }

// Judge aggregates gates into a CompletionVerdict. currentRunID, if
// non-empty, is the run id the caller expects every gate to carry (AC2);
// passing "" skips that check and instead derives the expected run id
// from the first gate, still enforcing AC4 (no mixing across gates).
//
// AC1: final_status = COMPLETE only when total failing = 0 across all
// gates. AC3: any gate with failing > 0 blocks COMPLETE regardless of
// other evidence — enforced structurally since failing_total already
// reflects every gate's count.
func Judge(gates []model.QAGateResult, currentRunID string) (*model.CompletionVerdict, error) {
	verdict := &model.CompletionVerdict{JudgedAt: Now()}

	if len(gates) == 0 {
		verdict.FinalStatus = model.FinalStatusNoEvidence
		return verdict, nil
	}

	expected := currentRunID
	if expected == "" {
		expected = gates[0].RunID
	}
	verdict.RunID = expected

	var stale []model.QAGateResult
	failingTotal := 0
	skippedTotal := 0
	var failingGates []string

	for _, g := range gates {
		if g.RunID != expected {
			stale = append(stale, g)
			continue
		}
		failingTotal += g.FailingCount
		skippedTotal += g.SkippedCount
		if g.FailingCount > 0 {
			failingGates = append(failingGates, g.Name)
		}
	}

	verdict.GateSummary = gates
	verdict.FailingTotal = failingTotal
	verdict.SkippedTotal = skippedTotal
	verdict.FailingGates = failingGates
	verdict.StaleResults = stale

	if len(stale) > 0 {
		bad := stale[0]
		return verdict, &StaleRunError{ExpectedRunID: expected, ActualRunID: bad.RunID, Gate: bad.Name}
	}

	verdict.AllPass = failingTotal == 0
	if verdict.AllPass {
		verdict.FinalStatus = model.FinalStatusComplete
	} else {
		verdict.FinalStatus = model.FinalStatusFailing
	}

	return verdict, nil
}
