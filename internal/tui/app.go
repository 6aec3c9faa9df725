// Package tui provides the interactive Bubble Tea dashboard for ratewatch.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/ratewatch/internal/fetcher"
	"github.com/theirongolddev/ratewatch/internal/model"
	"github.com/theirongolddev/ratewatch/internal/store"
	"github.com/theirongolddev/ratewatch/internal/tui/components"
	"github.com/theirongolddev/ratewatch/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

// Connection is what the dashboard needs from a loaded configuration.
type Connection struct {
	Source   fetcher.SnapshotSource
	BaseURL  string
	Interval time.Duration
}

// Connector reads configuration and builds a Connection. It is called at
// startup and again on every retry, so config edits take effect.
type Connector func() (Connection, error)

// HistoryStore is the slice of store.History the dashboard uses.
type HistoryStore interface {
	SaveSnapshot(snap *model.MarketSnapshot) (int64, error)
	Prune(keep int) (int64, error)
	Recent(limit int) ([]store.Record, error)
}

// Options configures NewApp.
type Options struct {
	Params      model.Parameters
	Connect     Connector
	History     HistoryStore // nil disables recording and the trend view
	HistoryKeep int
	Log         zerolog.Logger
	Now         func() time.Time
}

// snapshotMsg carries the result of one fetch cycle. gen ties it to the
// lifecycle that started it so results from before a retry are dropped.
type snapshotMsg struct {
	gen  int
	snap *model.MarketSnapshot
	err  error
}

// historyMsg carries the recent snapshots, newest first.
type historyMsg struct {
	records []store.Record
	err     error
}

type tickMsg time.Time

// App is the root Bubble Tea model.
type App struct {
	opts Options
	now  func() time.Time
	log  zerolog.Logger

	// Fetch lifecycle
	conn   Connection
	state  fetcher.State
	gen    int
	ctx    context.Context
	cancel context.CancelFunc

	params  model.Parameters
	history []store.Record // oldest first

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	settings  settingsState
	spinner   spinner.Model
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5

	tickInterval = time.Second
	historyLimit = 120
)

// NewApp creates the dashboard model and connects using opts.Connect.
// When connecting fails the model starts in the error state and never fetches.
func NewApp(opts Options) App {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		opts:    opts,
		now:     opts.Now,
		log:     opts.Log,
		params:  opts.Params,
		spinner: sp,
	}
	a.connect()
	return a
}

// connect starts a fresh lifecycle: new generation, new context, freshly
// read configuration. The first cycle is marked as begun so Init fetches.
func (a *App) connect() {
	if a.cancel != nil {
		a.cancel()
	}
	a.gen++
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.state = fetcher.State{}
	a.conn = Connection{}

	if a.opts.Connect == nil {
		a.state = fetcher.ConfigError(errors.New("tui: no connector"))
		return
	}
	conn, err := a.opts.Connect()
	if err != nil {
		a.log.Error().Err(err).Msg("dashboard configuration failed")
		a.state = fetcher.ConfigError(err)
		return
	}
	if conn.Interval <= 0 {
		conn.Interval = 5 * time.Minute
	}
	a.conn = conn
	a.state = a.state.Begin(a.now())
}

// Close cancels any in-flight request. Safe to call more than once.
func (a App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		tickCmd(),
		loadHistoryCmd(a.opts.History),
	}
	if a.state.InFlight {
		cmds = append(cmds, fetchCmd(a.ctx, a.conn.Source, a.gen))
	}
	return tea.Batch(cmds...)
}

// startCycle begins a refresh unless one is in flight or configuration
// failed. Data already on screen stays visible while it runs.
func (a *App) startCycle() tea.Cmd {
	if a.state.InFlight || a.state.ConfigErr || a.conn.Source == nil {
		return nil
	}
	a.state = a.state.Begin(a.now())
	return fetchCmd(a.ctx, a.conn.Source, a.gen)
}

// retry restarts the whole lifecycle, re-reading configuration.
func (a *App) retry() tea.Cmd {
	a.log.Info().Msg("retrying: reloading configuration")
	a.connect()
	if !a.state.InFlight {
		return nil
	}
	return tea.Batch(fetchCmd(a.ctx, a.conn.Source, a.gen), a.spinner.Tick)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.MouseMsg:
		if a.showHelp || a.state.Snapshot == nil {
			return a, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case snapshotMsg:
		if msg.gen != a.gen {
			return a, nil
		}
		if errors.Is(msg.err, context.Canceled) && a.ctx.Err() != nil {
			return a, nil
		}
		a.state = a.state.Apply(msg.snap, msg.err, a.now())
		if msg.err != nil {
			a.log.Warn().Err(msg.err).Bool("stale", a.state.Stale()).Msg("fetch cycle failed")
			return a, nil
		}
		a.log.Info().Int64("cycle", a.state.Cycles).Msg("fetch cycle succeeded")
		return a, recordHistoryCmd(a.opts.History, msg.snap, a.opts.HistoryKeep)

	case historyMsg:
		if msg.err != nil {
			a.log.Warn().Err(msg.err).Msg("history read failed")
			return a, nil
		}
		a.history = make([]store.Record, len(msg.records))
		for i, r := range msg.records {
			a.history[len(msg.records)-1-i] = r
		}
		return a, nil

	case spinner.TickMsg:
		if a.state.Phase == fetcher.PhaseLoading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.refreshDue() {
			cmds = append(cmds, a.startCycle())
		}
		return a, tea.Batch(cmds...)
	}

	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		a.Close()
		return a, tea.Quit
	}

	// Parameter editor intercepts all keys while open.
	if a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		a.Close()
		return a, tea.Quit
	case "r":
		// With data on screen a retry is a refresh in place, so a second
		// failure still leaves the last values visible.
		if a.state.Phase == fetcher.PhaseError && a.state.Snapshot == nil {
			return a, a.retry()
		}
		return a, a.startCycle()
	}

	// Everything below needs the main view.
	if a.state.Snapshot == nil {
		return a, nil
	}

	if a.activeTab == tabSettings {
		switch key {
		case "j", "down":
			if a.settings.cursor < settingsFieldCount-1 {
				a.settings.cursor++
			}
			return a, nil
		case "k", "up":
			if a.settings.cursor > 0 {
				a.settings.cursor--
			}
			return a, nil
		case "enter":
			return a.settingsStartEdit()
		}
	}

	switch key {
	case "i":
		a.activeTab = tabSettings
		a.settings.cursor = settingsFieldInflation
		return a.settingsStartEdit()
	case "g":
		a.activeTab = tabSettings
		a.settings.cursor = settingsFieldGrowth
		return a.settingsStartEdit()
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if idx := components.TabIdxByKey(key); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

// refreshDue reports whether the interval has elapsed since the last attempt.
func (a App) refreshDue() bool {
	if a.state.InFlight || a.state.ConfigErr || a.conn.Source == nil {
		return false
	}
	return a.now().Sub(a.state.LastAttempt) >= a.conn.Interval
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.state.Snapshot == nil {
		if a.state.Phase == fetcher.PhaseError {
			return a.viewError()
		}
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  ratewatch needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) centeredCard(body string, border lipgloss.Color) string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Background(t.Surface).
		Padding(1, 3).
		Render(body)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoading() string {
	t := theme.Active
	logo := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logo.Render("◈ ratewatch"))
	b.WriteString(muted.Render(" · Macro Indicators"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(muted.Render(" Loading market data..."))
	if a.conn.BaseURL != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(a.conn.BaseURL))
	}
	return a.centeredCard(b.String(), t.BorderAccent)
}

func (a App) viewError() string {
	t := theme.Active
	title := lipgloss.NewStyle().Foreground(t.Error).Background(t.Surface).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	key := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	var b strings.Builder
	b.WriteString(title.Render("✗ " + a.state.Message()))
	b.WriteString("\n\n")
	if a.state.ConfigErr {
		b.WriteString(muted.Render("Set RATEWATCH_BASE_URL, pass --base-url,\nor run `ratewatch setup`."))
		b.WriteString("\n\n")
	}
	b.WriteString(key.Render("[r]"))
	b.WriteString(muted.Render(" retry   "))
	b.WriteString(key.Render("[q]"))
	b.WriteString(muted.Render(" quit"))
	return a.centeredCard(b.String(), t.Error)
}

func (a App) viewHelp() string {
	t := theme.Active
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	bindings := []struct{ key, desc string }{
		{"o h s", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"i", "Edit estimated inflation"},
		{"g", "Edit estimated growth"},
		{"j k Enter", "Navigate / edit settings"},
		{"Esc", "Cancel edit"},
		{"r", "Refresh now (retry on error)"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
	for _, bind := range bindings {
		fmt.Fprintf(&b, "%s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
			descStyle.Render(bind.desc))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))
	return a.centeredCard(b.String(), t.BorderAccent)
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w)
	statusBar := components.RenderStatusBar(w, a.statusInfo())

	var banner string
	if a.state.Stale() {
		banner = components.AlertCard("",
			lipgloss.NewStyle().Foreground(t.Error).Background(t.Surface).Bold(true).Render(a.state.Message())+
				lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(
					fmt.Sprintf(" Showing data from %s. [r] retry", a.updatedAgo())),
			cw, t.Error)
	}

	contentH := a.height - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if banner != "" {
		contentH -= lipgloss.Height(banner)
	}
	contentH = max(contentH, minContentHeight)

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabHistory:
		content = a.renderHistoryTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	parts := []string{header}
	if banner != "" {
		parts = append(parts, lipgloss.PlaceHorizontal(w, lipgloss.Center, banner,
			lipgloss.WithWhitespaceBackground(t.Background)))
	}
	parts = append(parts, content, statusBar)
	output := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusInfo() components.StatusInfo {
	info := components.StatusInfo{
		Refreshing: a.state.InFlight,
		Stale:      a.state.Stale(),
		Notice:     a.settings.notice,
	}
	if !a.state.LastSuccess.IsZero() {
		info.Updated = a.updatedAgo()
	}
	if a.conn.Interval > 0 && !a.state.LastAttempt.IsZero() {
		info.NextRefresh = float64(a.now().Sub(a.state.LastAttempt)) / float64(a.conn.Interval)
	}
	return info
}

func (a App) updatedAgo() string {
	if a.state.LastSuccess.IsZero() {
		return "never"
	}
	d := a.now().Sub(a.state.LastSuccess)
	if d < time.Minute {
		return "just now"
	}
	return fmt.Sprintf("%s ago", d.Truncate(time.Minute))
}

// ─── Commands ───────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchCmd runs one all-or-nothing fetch. The context is cancelled when the
// dashboard quits or the lifecycle restarts.
func fetchCmd(ctx context.Context, src fetcher.SnapshotSource, gen int) tea.Cmd {
	return func() tea.Msg {
		snap, err := src.FetchSnapshot(ctx)
		return snapshotMsg{gen: gen, snap: snap, err: err}
	}
}

// recordHistoryCmd stores snap, prunes, and reloads the trend series.
func recordHistoryCmd(h HistoryStore, snap *model.MarketSnapshot, keep int) tea.Cmd {
	if h == nil || snap == nil {
		return nil
	}
	return func() tea.Msg {
		if _, err := h.SaveSnapshot(snap); err != nil {
			return historyMsg{err: err}
		}
		if _, err := h.Prune(keep); err != nil {
			return historyMsg{err: err}
		}
		recs, err := h.Recent(historyLimit)
		return historyMsg{records: recs, err: err}
	}
}

func loadHistoryCmd(h HistoryStore) tea.Cmd {
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		recs, err := h.Recent(historyLimit)
		return historyMsg{records: recs, err: err}
	}
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the widths used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // separator
	}
	return -1
}

// ─── Layout Helpers ─────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
