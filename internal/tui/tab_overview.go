package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/ratewatch/internal/cli"
	"github.com/theirongolddev/ratewatch/internal/pipeline"
	"github.com/theirongolddev/ratewatch/internal/tui/components"
	"github.com/theirongolddev/ratewatch/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const (
	tabOverview = iota
	tabHistory
	tabSettings
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	snap := a.state.Snapshot
	d := pipeline.Derive(snap, a.params)

	var bond, tips *float64
	if snap.LongTermRates != nil {
		bond = &snap.LongTermRates.BondYield
		tips = &snap.LongTermRates.TIPSYield
	}

	nullNote := func(v *float64, note string) string {
		if v == nil {
			return "source returned null"
		}
		return note
	}

	var b strings.Builder

	// Row 1: raw indicators
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Inflation", Value: cli.FormatRate(snap.Inflation), Note: nullNote(snap.Inflation, "latest CPI, y/y")},
		{Label: "T-Bill", Value: cli.FormatRate(snap.TBill), Note: nullNote(snap.TBill, "short-term bill yield")},
		{Label: "Bond Yield", Value: cli.FormatRate(bond), Note: nullNote(bond, "long-term nominal")},
		{Label: "TIPS Yield", Value: cli.FormatRate(tips), Note: nullNote(tips, "long-term real")},
	}, cw))
	b.WriteString("\n")

	// Row 2: derived metrics
	signed := func(v *float64) lipgloss.Color {
		if v == nil {
			return t.TextDim
		}
		return t.Signed(*v)
	}
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Effective Real Yield", Value: cli.FormatRate(d.EffectiveRealYield), Color: signed(d.EffectiveRealYield), Note: "t-bill − est. inflation"},
		{Label: "Implied Inflation", Value: cli.FormatRate(d.MarketImpliedInflation), Note: "bond − tips"},
		{Label: "Δ Inflation", Value: cli.FormatSignedRate(d.DeltaInflation), Color: signed(d.DeltaInflation), Note: "implied − estimate"},
		{Label: "Δ Growth", Value: cli.FormatSignedRate(d.DeltaGrowth), Color: signed(d.DeltaGrowth), Note: "tips − estimate"},
		{Label: "Est. Returns", Value: cli.FormatRate(d.EstimatedReturns), Color: signed(d.EstimatedReturns), Note: "bond + Δ infl + Δ growth"},
	}, cw))
	b.WriteString("\n")

	// Row 3: estimates + freshness
	halves := components.LayoutRow(cw, 2)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var est strings.Builder
	est.WriteString(labelStyle.Render("Estimated inflation  "))
	est.WriteString(valueStyle.Render(cli.FormatRate(&a.params.EstimatedInflation)))
	est.WriteString(keyStyle.Render("  [i] edit"))
	est.WriteString("\n")
	est.WriteString(labelStyle.Render("Estimated growth     "))
	est.WriteString(valueStyle.Render(cli.FormatRate(&a.params.EstimatedGrowth)))
	est.WriteString(keyStyle.Render("  [g] edit"))

	var src strings.Builder
	src.WriteString(labelStyle.Render("Fetched   "))
	src.WriteString(valueStyle.Render(snap.FetchedAt.Local().Format("15:04:05")))
	src.WriteString(labelStyle.Render(fmt.Sprintf(" (%s)", a.updatedAgo())))
	src.WriteString("\n")
	src.WriteString(labelStyle.Render("Refresh   "))
	src.WriteString(valueStyle.Render("every " + cli.FormatDuration(int64(a.conn.Interval.Seconds()))))
	if a.state.Failures > 0 {
		src.WriteString(labelStyle.Render(fmt.Sprintf("  %d failed of %d", a.state.Failures, a.state.Cycles)))
	}

	b.WriteString(components.CardRow([]string{
		components.ContentCard("Your Estimates", est.String(), halves[0]),
		components.ContentCard("Source", src.String(), halves[1]),
	}))

	return b.String()
}
