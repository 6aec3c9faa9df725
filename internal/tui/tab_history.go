package tui

import (
	"strings"

	"github.com/theirongolddev/ratewatch/internal/cli"
	"github.com/theirongolddev/ratewatch/internal/model"
	"github.com/theirongolddev/ratewatch/internal/tui/components"
	"github.com/theirongolddev/ratewatch/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const historyTableRows = 8

// series extracts one indicator from the history, skipping null points.
func (a App) series(pick func(model.MarketSnapshot) *float64) []float64 {
	out := make([]float64, 0, len(a.history))
	for _, r := range a.history {
		if v := pick(r.Snapshot); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func (a App) renderHistoryTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if a.opts.History == nil {
		return components.ContentCard("History", muted.Render("History is disabled. Enable it with [history] enabled = true."), cw)
	}
	if len(a.history) == 0 {
		return components.ContentCard("History", muted.Render("No snapshots recorded yet."), cw)
	}

	inner := components.CardInnerWidth(cw)
	const labelW = 18
	sparkW := max(inner-labelW-2-30, 10)

	implied := func(s model.MarketSnapshot) *float64 {
		if s.LongTermRates == nil {
			return nil
		}
		return model.Float(s.LongTermRates.BondYield - s.LongTermRates.TIPSYield)
	}

	rows := []string{
		components.TrendRow("T-Bill", a.series(func(s model.MarketSnapshot) *float64 { return s.TBill }), t.Accent, labelW, sparkW),
		components.TrendRow("Inflation", a.series(func(s model.MarketSnapshot) *float64 { return s.Inflation }), t.Warning, labelW, sparkW),
		components.TrendRow("Bond Yield", a.series(func(s model.MarketSnapshot) *float64 {
			if s.LongTermRates == nil {
				return nil
			}
			return &s.LongTermRates.BondYield
		}), t.Info, labelW, sparkW),
		components.TrendRow("TIPS Yield", a.series(func(s model.MarketSnapshot) *float64 {
			if s.LongTermRates == nil {
				return nil
			}
			return &s.LongTermRates.TIPSYield
		}), t.Positive, labelW, sparkW),
		components.TrendRow("Implied Inflation", a.series(implied), t.AccentBright, labelW, sparkW),
	}

	var b strings.Builder
	b.WriteString(components.ContentCard("Trends ("+cli.FormatNumber(int64(len(a.history)))+" snapshots)", strings.Join(rows, "\n"), cw))
	b.WriteString("\n")

	// Recent snapshots, newest first.
	head := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	cell := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var tbl strings.Builder
	tbl.WriteString(head.Render(padRight("Fetched", 20) + padLeft("Inflation", 11) + padLeft("T-Bill", 9) + padLeft("Bond", 9) + padLeft("TIPS", 9)))
	for i := 0; i < historyTableRows && i < len(a.history); i++ {
		s := a.history[len(a.history)-1-i].Snapshot
		var bond, tips *float64
		if s.LongTermRates != nil {
			bond, tips = &s.LongTermRates.BondYield, &s.LongTermRates.TIPSYield
		}
		tbl.WriteString("\n")
		tbl.WriteString(cell.Render(padRight(s.FetchedAt.Local().Format("2006-01-02 15:04"), 20) +
			padLeft(cli.FormatRate(s.Inflation), 11) +
			padLeft(cli.FormatRate(s.TBill), 9) +
			padLeft(cli.FormatRate(bond), 9) +
			padLeft(cli.FormatRate(tips), 9)))
	}
	b.WriteString(components.ContentCard("Recent Snapshots", tbl.String(), cw))

	return b.String()
}

func padRight(s string, w int) string {
	if n := w - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func padLeft(s string, w int) string {
	if n := w - lipgloss.Width(s); n > 0 {
		return strings.Repeat(" ", n) + s
	}
	return s
}
