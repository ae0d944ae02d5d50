package cli

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	primaryColor = lipgloss.Color("#7C3AED")
	mutedColor   = lipgloss.Color("#6B7280")

	headerStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	unreadStyle = lipgloss.NewStyle().
			Bold(true)

	mutedTextStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

// truncate shortens s to at most width terminal cells, appending "..."
// when anything was cut.
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

// formatActivity renders a Unix timestamp with the configured layout. Zero
// means the participant has no activity of that kind.
func formatActivity(ts int64, layout string) string {
	if ts <= 0 {
		return "-"
	}
	return time.Unix(ts, 0).Local().Format(layout)
}
