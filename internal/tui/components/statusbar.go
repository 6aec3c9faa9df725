package components

import (
	"strings"

	"github.com/theirongolddev/ratewatch/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar reports about the fetch lifecycle.
type StatusInfo struct {
	Refreshing  bool
	Stale       bool
	Updated     string  // e.g. "2m ago"; empty before the first success
	NextRefresh float64 // fraction of the interval elapsed, 0..1
	Notice      string  // transient message, e.g. a rejected input
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface).Bold(true)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	left := base.Render(" [?]help  [r]efresh  [q]uit")
	if info.Notice != "" {
		left += base.Render("  ") + warn.Render(info.Notice)
	}

	var right string
	switch {
	case info.Refreshing:
		right = accent.Render("refreshing… ")
	case info.Updated != "":
		if info.Stale {
			right = warn.Render("stale ")
		}
		right += base.Render("updated "+info.Updated+" ") + ProgressBar(info.NextRefresh, 10) + base.Render(" ")
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	return left + base.Render(strings.Repeat(" ", padding)) + right
}

