package tasklog

import (
	"fmt"
	"strings"

	"github.com/pmrun/pmrun/internal/model"
)

// RenderTranscript renders entries to markdown, oldest first. When
// summaryOnly is true, entries whose Visibility is VisibilityFull are
// omitted — the default operator view; pass false for the verbose
// transcript.
func RenderTranscript(entries []*model.TaskLog, summaryOnly bool) string {
	var sb strings.Builder

	for _, e := range entries {
		if summaryOnly && e.Visibility == model.VisibilityFull {
			continue
		}
		sb.WriteString(fmt.Sprintf("### %s — %s\n\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Event))
		if e.RunID != "" {
			sb.WriteString(fmt.Sprintf("_run %s_\n\n", e.RunID))
		}
		if e.Text != "" {
			sb.WriteString(e.Text)
			sb.WriteString("\n\n")
		}
	}

	return sb.String()
}
