package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/ratewatch/internal/cli"
	"github.com/theirongolddev/ratewatch/internal/config"
	"github.com/theirongolddev/ratewatch/internal/pipeline"
	"github.com/theirongolddev/ratewatch/internal/tui/components"
	"github.com/theirongolddev/ratewatch/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldInflation = iota
	settingsFieldGrowth
	settingsFieldTheme
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor   int
	editing  bool
	input    textinput.Model
	inputErr string // inline rejection shown under the input
	notice   string // last outcome, echoed in the status bar
}

func newParameterInput(current float64) textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 16
	ti.Width = 12
	ti.Placeholder = "e.g. 2.5"
	ti.SetValue(strconv.FormatFloat(current, 'f', -1, 64))
	ti.CursorEnd()
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.inputErr = ""
	a.settings.notice = ""

	switch a.settings.cursor {
	case settingsFieldInflation:
		a.settings.input = newParameterInput(a.params.EstimatedInflation)
	case settingsFieldGrowth:
		a.settings.input = newParameterInput(a.params.EstimatedGrowth)
	case settingsFieldTheme:
		next := theme.Next(theme.Active.Name)
		theme.SetActive(next.Name)
		a.spinner.Style = a.spinner.Style.Foreground(next.Accent).Background(next.Surface)
		a.settings.notice = "theme: " + next.Name
		return a, nil
	default:
		return a, nil
	}

	a.settings.editing = true
	a.settings.input.Focus()
	return a, a.settings.input.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return a.settingsCommit(), nil
	case "esc":
		a.settings.editing = false
		a.settings.inputErr = ""
		a.settings.notice = ""
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsCommit applies the edited estimate. Rejected input leaves the
// current value untouched and keeps the editor open with the reason.
func (a App) settingsCommit() App {
	raw := a.settings.input.Value()
	v, err := pipeline.ParseParameter(raw)
	if err != nil {
		a.settings.inputErr = rejectionText(raw, err)
		a.settings.notice = "input rejected"
		a.log.Debug().Err(err).Str("input", raw).Msg("parameter rejected")
		return a
	}

	switch a.settings.cursor {
	case settingsFieldInflation:
		a.params.EstimatedInflation = v
	case settingsFieldGrowth:
		a.params.EstimatedGrowth = v
	}
	a.settings.editing = false
	a.settings.inputErr = ""
	a.settings.notice = ""
	return a
}

func rejectionText(raw string, err error) string {
	if strings.TrimSpace(raw) == "" {
		return "Enter a value"
	}
	if errors.Is(err, pipeline.ErrInvalidParameter) {
		return fmt.Sprintf("Enter a number between %g and %g", -pipeline.ParameterLimit, pipeline.ParameterLimit)
	}
	return err.Error()
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	errStyle := lipgloss.NewStyle().Foreground(t.Error).Background(t.Surface)

	fields := []struct{ label, value string }{
		{"Estimated inflation", cli.FormatRate(&a.params.EstimatedInflation)},
		{"Estimated growth", cli.FormatRate(&a.params.EstimatedGrowth)},
		{"Theme", t.Name},
	}

	var form strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(accentStyle.Render(fmt.Sprintf("%-20s ", f.label)))
			form.WriteString(a.settings.input.View())
			form.WriteString(labelStyle.Render(" %"))
			if a.settings.inputErr != "" {
				form.WriteString("\n  ")
				form.WriteString(errStyle.Render("✗ " + a.settings.inputErr))
			}
			form.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-20s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			form.WriteString(marker + label + value)
			used := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if pad := components.CardInnerWidth(cw) - used; pad > 0 {
				form.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			form.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			form.WriteString(labelStyle.Render(fmt.Sprintf("%-20s ", f.label+":")))
			form.WriteString(valueStyle.Render(f.value))
		}
		form.WriteString("\n")
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel   Edits last until you quit."))

	var info strings.Builder
	info.WriteString(labelStyle.Render("API base URL:  ") + valueStyle.Render(a.conn.BaseURL) + "\n")
	info.WriteString(labelStyle.Render("Refresh every: ") + valueStyle.Render(cli.FormatDuration(int64(a.conn.Interval.Seconds()))) + "\n")
	history := "disabled"
	if a.opts.History != nil {
		history = fmt.Sprintf("%d snapshots loaded", len(a.history))
	}
	info.WriteString(labelStyle.Render("History:       ") + valueStyle.Render(history) + "\n")
	info.WriteString(labelStyle.Render("Config file:   ") + valueStyle.Render(config.Path()))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", form.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", info.String(), cw))
	return b.String()
}
