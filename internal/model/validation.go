package model

import (
	"fmt"
	"strings"
)

// ValidationError is a single structured validation failure, carried as
// data rather than a formatted string so callers can inspect Field/Expected
// programmatically before ever rendering a message.
type ValidationError struct {
	Field    string      // dotted path, e.g. "tasks[0].type"
	Expected string      // "one of: READ_INFO, REPORT, ..."
	Actual   interface{} // what was found
	Message  string      // human-readable fix instruction
}

// ValidationErrors collects zero or more ValidationError and implements
// error so it can be returned directly from a validating constructor.
type ValidationErrors struct {
	Errors []ValidationError
}

// Add appends one validation error.
func (v *ValidationErrors) Add(field, expected string, actual interface{}, msg string) {
	v.Errors = append(v.Errors, ValidationError{
		Field:    field,
		Expected: expected,
		Actual:   actual,
		Message:  msg,
	})
}

// HasErrors reports whether any errors were collected.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface with a terse summary.
func (v *ValidationErrors) Error() string {
	if !v.HasErrors() {
		return "no validation errors"
	}
	if len(v.Errors) == 1 {
		e := v.Errors[0]
		return fmt.Sprintf("validation error in field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed with %d errors", len(v.Errors))
}

// ToPrompt renders the errors as a numbered, actionable block suitable for
// feeding back to an executor or a clarification request. The guard's
// pre-flight gate does not use it; it returns a model.Clarification.
func (v *ValidationErrors) ToPrompt() string {
	if !v.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Validation failed with %d error(s):\n\n", len(v.Errors)))
	for i, err := range v.Errors {
		sb.WriteString(fmt.Sprintf("%d. Field: %s\n", i+1, err.Field))
		sb.WriteString(fmt.Sprintf("   Expected: %s\n", err.Expected))
		sb.WriteString(fmt.Sprintf("   Found: %v\n", formatActual(err.Actual)))
		sb.WriteString(fmt.Sprintf("   Fix: %s\n", err.Message))
		if i < len(v.Errors)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatActual(actual interface{}) string {
	if actual == nil {
		return "null"
	}
	switch val := actual.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case []string:
		if len(val) == 0 {
			return "[]"
		}
		quoted := make([]string, len(val))
		for i, s := range val {
			quoted[i] = fmt.Sprintf("%q", s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	default:
		return fmt.Sprintf("%v", actual)
	}
}
