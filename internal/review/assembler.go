package review

import (
	"fmt"
	"strings"

	"github.com/pmrun/pmrun/internal/model"
)

// PromptAssembler builds the modification prompt sent back to the executor
// after a REJECT. It is constructor-injected on Loop so a caller may supply
// a project-specific template; builtinAssembler is used when none is given.
type PromptAssembler interface {
	Assemble(originalPrompt string, details model.RejectionDetails) string
}

// builtinAssembler is the default PromptAssembler: a preamble, the failed
// criteria with detail, a fixed requirement block, and the original task.
type builtinAssembler struct{}

func (builtinAssembler) Assemble(originalPrompt string, details model.RejectionDetails) string {
	var sb strings.Builder

	sb.WriteString("Your previous attempt was rejected for the following reasons:\n\n")
	for _, c := range details.FailedCriteria {
		sb.WriteString(fmt.Sprintf("- [%s] %s\n", c.ID, c.Detail))
	}
	sb.WriteString("\n")
	sb.WriteString("Requirements for this attempt:\n")
	sb.WriteString("- Output all code without omission.\n")
	sb.WriteString("- Do not leave TODO, FIXME, TBD, HACK, or XXX markers.\n")
	sb.WriteString("- Create all files the task requires.\n")
	sb.WriteString("- Do not declare completion until the work is actually done.\n\n")
	sb.WriteString("Original task:\n")
	sb.WriteString(originalPrompt)

	return sb.String()
}

// DefaultAssembler returns the built-in PromptAssembler.
func DefaultAssembler() PromptAssembler { return builtinAssembler{} }
