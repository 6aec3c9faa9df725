package cmd

import (
	"fmt"

	"github.com/theirongolddev/ratewatch/internal/config"
	"github.com/theirongolddev/ratewatch/internal/tui"
	"github.com/theirongolddev/ratewatch/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	// A broken config file still shows the dashboard; connect reports it.
	cfg, cfgErr := loadConfig()
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}
	theme.SetActive(cfg.Appearance.Theme)

	params, err := parameters(cfg)
	if err != nil {
		return err
	}

	logOut := cfg.Log.File
	if logOut == "" {
		logOut = defaultLogFile()
	}
	log, closeLog, err := newLogger(cfg, logOut)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	hist, err := openHistory(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("history unavailable")
		hist = nil
	}
	opts := tui.Options{
		Params:      params,
		HistoryKeep: cfg.History.Keep,
		Log:         log,
		Connect: func() (tui.Connection, error) {
			c, err := loadConfig()
			if err != nil {
				return tui.Connection{}, err
			}
			client, err := newClient(c)
			if err != nil {
				return tui.Connection{}, err
			}
			return tui.Connection{
				Source:   client,
				BaseURL:  client.BaseURL(),
				Interval: c.RefreshInterval(),
			}, nil
		},
	}
	if hist != nil {
		defer func() { _ = hist.Close() }()
		opts.History = hist
	}

	// Force TrueColor so background styling always produces ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(opts)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	final, err := p.Run()
	// Retry replaces the lifecycle context, so close the final model too.
	if m, ok := final.(tui.App); ok {
		m.Close()
	}
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
