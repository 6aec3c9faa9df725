package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/ratewatch/internal/cli"
	"github.com/theirongolddev/ratewatch/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline renders values as a colored unicode sparkline, scaled between
// the series minimum and maximum.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active
	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	return style.Render(cli.RenderSparkline(values))
}

// TrendRow renders "label  sparkline  last (range lo–hi)" for one series.
// Series longer than width keep their most recent points.
func TrendRow(label string, values []float64, color lipgloss.Color, labelW, width int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	gap := lipgloss.NewStyle().Background(t.Surface).Render("  ")

	if len(values) == 0 {
		return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) + gap + dimStyle.Render("no data")
	}

	if width > 0 && len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	last := values[len(values)-1]

	var b strings.Builder
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)))
	b.WriteString(gap)
	b.WriteString(Sparkline(values, color))
	b.WriteString(gap)
	b.WriteString(valueStyle.Render(fmt.Sprintf("%6.2f%%", last)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  range %.2f–%.2f", lo, hi)))
	return b.String()
}
