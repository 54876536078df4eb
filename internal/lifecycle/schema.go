package lifecycle

import (
	"fmt"

	"github.com/pmrun/pmrun/internal/model"
)

// PhaseEvidence is the evidence packet a caller submits for the current
// phase. Keys are phase-specific; see the per-phase validators below.
// Plain map[string]any keeps each phase's evidence loosely shaped rather
// than forcing every phase through one rigid struct, since the seven
// phases have genuinely different minimum shapes.
type PhaseEvidence map[string]any

// validateRequirementAnalysis requires a non-empty list of requirement
// items under "requirements".
func validateRequirementAnalysis(e PhaseEvidence) error {
	items, ok := e["requirements"].([]any)
	if !ok || len(items) == 0 {
		return fmt.Errorf("REQUIREMENT_ANALYSIS requires a non-empty requirements list")
	}
	return nil
}

// validateTaskDecomposition requires a non-empty list of decomposed tasks.
func validateTaskDecomposition(e PhaseEvidence) error {
	items, ok := e["tasks"].([]any)
	if !ok || len(items) == 0 {
		return fmt.Errorf("TASK_DECOMPOSITION requires a non-empty tasks list")
	}
	return nil
}

// validatePlanning requires an ordering (dependency plan) covering the
// decomposed tasks.
func validatePlanning(e PhaseEvidence) error {
	order, ok := e["task_order"].([]any)
	if !ok || len(order) == 0 {
		return fmt.Errorf("PLANNING requires a non-empty task_order list")
	}
	return nil
}

// validateExecution requires per-task execution results.
func validateExecution(e PhaseEvidence) error {
	results, ok := e["execution_results"].([]any)
	if !ok || len(results) == 0 {
		return fmt.Errorf("EXECUTION requires per-task execution_results")
	}
	return nil
}

// validateQA requires at least one QA gate result.
func validateQA(e PhaseEvidence) error {
	gates, ok := e["gate_results"].([]any)
	if !ok || len(gates) == 0 {
		return fmt.Errorf("QA requires at least one gate_results entry")
	}
	return nil
}

// validateCompletionValidation requires a completion verdict.
func validateCompletionValidation(e PhaseEvidence) error {
	if _, ok := e["verdict"]; !ok {
		return fmt.Errorf("COMPLETION_VALIDATION requires a verdict")
	}
	return nil
}

// validateReport requires a non-empty summary.
func validateReport(e PhaseEvidence) error {
	summary, ok := e["summary"].(string)
	if !ok || summary == "" {
		return fmt.Errorf("REPORT requires a non-empty summary")
	}
	return nil
}

var phaseValidators = map[model.Phase]func(PhaseEvidence) error{
	model.PhaseRequirementAnalysis:  validateRequirementAnalysis,
	model.PhaseTaskDecomposition:    validateTaskDecomposition,
	model.PhasePlanning:             validatePlanning,
	model.PhaseExecution:            validateExecution,
	model.PhaseQA:                   validateQA,
	model.PhaseCompletionValidation: validateCompletionValidation,
	model.PhaseReport:               validateReport,
}

// validatePhaseEvidence runs the minimum-evidence schema for phase. A
// failure here is distinct from a skipped-phase failure (controller.go
// reports it as INVALID, not PHASE_TRANSITION_INVALID).
func validatePhaseEvidence(phase model.Phase, e PhaseEvidence) error {
	validator, ok := phaseValidators[phase]
	if !ok {
		return fmt.Errorf("no evidence schema registered for phase %s", phase)
	}
	return validator(e)
}
