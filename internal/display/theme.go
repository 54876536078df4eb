package display

import "github.com/fatih/color"

// Box drawing characters.
const (
	BoxTopLeft     = "┌"
	BoxTopRight    = "┐"
	BoxBottomLeft  = "└"
	BoxBottomRight = "┘"
	BoxHorizontal  = "─"
	BoxVertical    = "│"

	SectionBreakChar = "━"
)

// Gutter markers prefixing streamed executor output lines.
const (
	GutterClaude = "▸"
	GutterDot    = "·"
)

// Status symbols.
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolPending = "○"
	SymbolPartial = "◐"
)

// Theme holds all color functions for consistent styling.
type Theme struct {
	// Runner narration (prominent)
	Border func(a ...interface{}) string
	Label  func(a ...interface{}) string
	Text   func(a ...interface{}) string

	// External executor output (subdued)
	ExecutorTimestamp func(a ...interface{}) string
	ExecutorText      func(a ...interface{}) string
	ExecutorLabel     func(a ...interface{}) string

	// Status indicators
	Success func(a ...interface{}) string
	Error   func(a ...interface{}) string
	Warning func(a ...interface{}) string
	Info    func(a ...interface{}) string

	// Structural elements
	Bold      func(a ...interface{}) string
	Dim       func(a ...interface{}) string
	Separator func(a ...interface{}) string
}

// DefaultTheme creates the default color theme.
func DefaultTheme() *Theme {
	return &Theme{
		Border: color.New(color.FgCyan).SprintFunc(),
		Label:  color.New(color.FgCyan, color.Bold).SprintFunc(),
		Text:   color.New(color.FgWhite).SprintFunc(),

		ExecutorTimestamp: color.New(color.FgHiBlack).SprintFunc(),
		ExecutorText:      color.New(color.FgWhite).SprintFunc(),
		ExecutorLabel:     color.New(color.FgHiBlack).SprintFunc(),

		Success: color.New(color.FgGreen).SprintFunc(),
		Error:   color.New(color.FgRed).SprintFunc(),
		Warning: color.New(color.FgYellow).SprintFunc(),
		Info:    color.New(color.FgCyan).SprintFunc(),

		Bold:      color.New(color.Bold).SprintFunc(),
		Dim:       color.New(color.FgHiBlack).SprintFunc(),
		Separator: color.New(color.FgCyan).SprintFunc(),
	}
}

// NoColorTheme creates a theme without colors (for --no-color or a non-TTY).
func NoColorTheme() *Theme {
	identity := func(a ...interface{}) string {
		if len(a) == 0 {
			return ""
		}
		return a[0].(string)
	}
	return &Theme{
		Border:            identity,
		Label:             identity,
		Text:              identity,
		ExecutorTimestamp: identity,
		ExecutorText:      identity,
		ExecutorLabel:     identity,
		Success:           identity,
		Error:             identity,
		Warning:           identity,
		Info:              identity,
		Bold:              identity,
		Dim:               identity,
		Separator:         identity,
	}
}
