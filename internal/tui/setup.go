package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/ratewatch/internal/config"
	"github.com/theirongolddev/ratewatch/internal/marketapi"
	"github.com/theirongolddev/ratewatch/internal/pipeline"
	"github.com/theirongolddev/ratewatch/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// SetupValues holds the answers of the setup form as entered text.
type SetupValues struct {
	BaseURL     string
	Inflation   string
	Growth      string
	IntervalSec string
	Theme       string
	History     bool
}

// SetupValuesFrom seeds the form with cfg.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		BaseURL:     cfg.API.BaseURL,
		Inflation:   strconv.FormatFloat(cfg.Estimates.Inflation, 'f', -1, 64),
		Growth:      strconv.FormatFloat(cfg.Estimates.Growth, 'f', -1, 64),
		IntervalSec: strconv.Itoa(cfg.Refresh.IntervalSec),
		Theme:       cfg.Appearance.Theme,
		History:     cfg.History.Enabled,
	}
}

// Apply validates the answers and writes them into cfg.
func (v SetupValues) Apply(cfg *config.Config) error {
	base := strings.TrimSpace(v.BaseURL)
	if err := validateBaseURL(base); err != nil {
		return err
	}
	infl, err := pipeline.ParseParameter(v.Inflation)
	if err != nil {
		return fmt.Errorf("estimated inflation: %w", err)
	}
	growth, err := pipeline.ParseParameter(v.Growth)
	if err != nil {
		return fmt.Errorf("estimated growth: %w", err)
	}
	interval, err := strconv.Atoi(strings.TrimSpace(v.IntervalSec))
	if err != nil || interval < config.MinRefreshIntervalSec {
		return fmt.Errorf("refresh interval must be at least %ds", config.MinRefreshIntervalSec)
	}

	cfg.API.BaseURL = base
	cfg.Estimates.Inflation = infl
	cfg.Estimates.Growth = growth
	cfg.Refresh.IntervalSec = interval
	cfg.Appearance.Theme = theme.ByName(v.Theme).Name
	cfg.History.Enabled = v.History
	return cfg.Validate()
}

// validateBaseURL accepts an empty value (configure via env later) or
// anything the API client would accept.
func validateBaseURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := marketapi.NewClient(s)
	return err
}

func validateParameter(s string) error {
	_, err := pipeline.ParseParameter(s)
	return err
}

var intervalOptions = []struct {
	label string
	value string
}{
	{"1 minute", "60"},
	{"5 minutes", "300"},
	{"15 minutes", "900"},
	{"1 hour", "3600"},
}

// NewSetupForm builds the interactive setup form bound to vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	intervalOpts := make([]huh.Option[string], 0, len(intervalOptions)+1)
	known := false
	for _, o := range intervalOptions {
		intervalOpts = append(intervalOpts, huh.NewOption(o.label, o.value))
		known = known || o.value == vals.IntervalSec
	}
	if !known && vals.IntervalSec != "" {
		intervalOpts = append(intervalOpts, huh.NewOption(vals.IntervalSec+" seconds (current)", vals.IntervalSec))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to ratewatch").
				Description("Point ratewatch at your indicator API and set your estimates.\nYou can change these later in "+config.Path()),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("API base URL").
				Description("Serves /api/v1/inflation, /api/v1/tbill and /api/v1/long_term_rates. Leave empty to use RATEWATCH_BASE_URL.").
				Placeholder("https://rates.example.com").
				Value(&vals.BaseURL).
				Validate(validateBaseURL),
			huh.NewInput().
				Title("Estimated inflation (%)").
				Value(&vals.Inflation).
				Validate(validateParameter),
			huh.NewInput().
				Title("Estimated growth (%)").
				Value(&vals.Growth).
				Validate(validateParameter),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Refresh interval").
				Options(intervalOpts...).
				Value(&vals.IntervalSec),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
			huh.NewConfirm().
				Title("Keep a local history of snapshots?").
				Value(&vals.History),
		),
	).WithTheme(huh.ThemeDracula())
}
