package components

import (
	"strings"

	"github.com/theirongolddev/ratewatch/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a compact bar for a fraction in [0, 1].
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = max(0, min(pct, 1))
	filled := int(pct * float64(width))

	barColor := t.Accent
	if pct >= 0.9 {
		barColor = t.AccentBright
	}

	filledStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled))
}
