// Package display formats pmrun's terminal output: it visually separates
// the runner's own narration (session/task status, gate failures) from the
// raw text streaming back from the external executor.
package display

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// Display handles all CLI output with visual hierarchy.
type Display struct {
	theme     *Theme
	termWidth int
	noColor   bool
}

// New creates a new Display instance.
func New() *Display {
	return NewWithOptions(false)
}

// NewWithOptions creates a Display with configuration.
func NewWithOptions(noColor bool) *Display {
	d := &Display{
		termWidth: getTerminalWidth(),
		noColor:   noColor,
	}
	if noColor {
		d.theme = NoColorTheme()
	} else {
		d.theme = DefaultTheme()
	}
	return d
}

// getTerminalWidth returns the terminal width, defaulting to 80.
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 40 {
		return 80
	}
	if width > 120 {
		return 120 // cap at 120 for readability
	}
	return width
}

// Banner prints a boxed message under title — used once at the top of a
// run to announce the session.
func (d *Display) Banner(title string, lines ...string) {
	if len(lines) == 0 {
		return
	}

	width := d.termWidth - 2
	titleLen := len(title) + 4 // "─ TITLE "
	remainingWidth := width - titleLen

	topLine := BoxTopLeft + BoxHorizontal + " " + title + " " + strings.Repeat(BoxHorizontal, remainingWidth) + BoxTopRight
	fmt.Println(d.theme.Border(topLine))

	for _, line := range lines {
		paddedLine := d.padRight(line, width-2)
		fmt.Println(d.theme.Border(BoxVertical) + " " + d.theme.Text(paddedLine) + " " + d.theme.Border(BoxVertical))
	}

	bottomLine := BoxBottomLeft + strings.Repeat(BoxHorizontal, width) + BoxBottomRight
	fmt.Println(d.theme.Border(bottomLine))
}

// statusLine prints a single-line timestamped status message (no box).
func (d *Display) statusLine(symbol, message string) {
	timestamp := time.Now().Format("[15:04:05]")
	fmt.Printf("%s %s %s\n",
		d.theme.Border(timestamp),
		symbol,
		d.theme.Text(message))
}

// Success prints a success message with a green checkmark.
func (d *Display) Success(message string) {
	d.statusLine(d.theme.Success(SymbolSuccess), message)
}

// Error prints an error message with a red X.
func (d *Display) Error(message string) {
	d.statusLine(d.theme.Error(SymbolError), message)
}

// Warning prints a warning message with a yellow triangle.
func (d *Display) Warning(message string) {
	d.statusLine(d.theme.Warning(SymbolWarning), message)
}

// Info prints a labeled info message.
func (d *Display) Info(label, message string) {
	d.statusLine(d.theme.Info(label+":"), message)
}

// wrapText wraps text to maxWidth, returning at most 5 lines.
func (d *Display) wrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		maxWidth = 80
	}

	text = strings.TrimSpace(text)
	if len(text) <= maxWidth {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len()+len(word)+1 > maxWidth {
			if currentLine.Len() > 0 {
				lines = append(lines, currentLine.String())
				currentLine.Reset()
			}
		}
		if currentLine.Len() > 0 {
			currentLine.WriteString(" ")
		}
		currentLine.WriteString(word)
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	if len(lines) > 5 {
		lines = lines[:5]
		if len(lines[4]) > maxWidth-3 {
			lines[4] = lines[4][:maxWidth-3]
		}
		lines[4] = lines[4] + "..."
	}

	return lines
}

// Claude prints one chunk of the external executor's stdout, gutter-tagged
// with the task id so concurrent tasks stay visually distinguishable.
func (d *Display) Claude(taskID, text string) {
	timestamp := time.Now().Format("[15:04:05]")
	gutter := d.theme.ExecutorTimestamp(GutterClaude)
	label := d.theme.ExecutorLabel(fmt.Sprintf("[%s]", taskID))

	lines := d.wrapText(text, d.termWidth-20)

	for i, line := range lines {
		if i == 0 {
			fmt.Printf("  %s %s %s %s\n", gutter, d.theme.Dim(timestamp), label, d.theme.ExecutorText(line))
		} else {
			fmt.Printf("  %s %s\n", d.theme.ExecutorTimestamp(GutterDot), d.theme.ExecutorText(line))
		}
	}
}

// SectionBreak prints a horizontal separator.
func (d *Display) SectionBreak() {
	fmt.Println(d.theme.Separator(strings.Repeat(SectionBreakChar, d.termWidth)))
}

// Duration prints an elapsed-time line.
func (d *Display) Duration(dur time.Duration) {
	fmt.Printf("   Duration: %s\n", dur.Round(time.Second))
}

// Theme returns the current theme for external use.
func (d *Display) Theme() *Theme {
	return d.theme
}

// padRight pads a string to the specified width.
func (d *Display) padRight(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Truncate truncates text to max length with ellipsis.
func Truncate(s string, max int) string {
	s = CleanText(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// CleanText removes newlines and collapses repeated spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}
