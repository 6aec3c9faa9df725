// Package cmd implements the ratewatch CLI commands.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/ratewatch/internal/cli"
	"github.com/theirongolddev/ratewatch/internal/config"
	"github.com/theirongolddev/ratewatch/internal/logging"
	"github.com/theirongolddev/ratewatch/internal/marketapi"
	"github.com/theirongolddev/ratewatch/internal/model"
	"github.com/theirongolddev/ratewatch/internal/pipeline"
	"github.com/theirongolddev/ratewatch/internal/store"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagBaseURL   string
	flagInflation string
	flagGrowth    string
	flagTimeout   time.Duration
	flagQuiet     bool
	flagNoHistory bool
)

var rootCmd = &cobra.Command{
	Use:   "ratewatch",
	Short: "Macro indicator dashboard",
	Long: "Watch inflation, T-bill, bond and TIPS yields from your indicator API,\n" +
		"and see real yields and estimated returns against your own estimates.",
	SilenceUsage: true,
	RunE:         runTUI,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderError(err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "Indicator API base URL (overrides config and "+config.EnvBaseURL+")")
	rootCmd.PersistentFlags().StringVar(&flagInflation, "inflation", "", "Estimated inflation in percent (e.g. 2.5)")
	rootCmd.PersistentFlags().StringVar(&flagGrowth, "growth", "", "Estimated growth in percent (e.g. 1.5)")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "Per-request timeout (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Don't read or record snapshot history")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagTimeout > 0 {
		cfg.API.TimeoutSec = max(1, int(flagTimeout.Seconds()))
	}
	if flagNoHistory {
		cfg.History.Enabled = false
	}
	return cfg, nil
}

// baseURL resolves the API base URL: flag, then env, then config.
func baseURL(cfg config.Config) (string, error) {
	if v := strings.TrimSpace(flagBaseURL); v != "" {
		return v, nil
	}
	return config.RequireBaseURL(cfg)
}

// parameters returns the configured estimates with flag overrides applied.
// Flag values go through the same validation as dashboard input.
func parameters(cfg config.Config) (model.Parameters, error) {
	p := model.Parameters{
		EstimatedInflation: cfg.Estimates.Inflation,
		EstimatedGrowth:    cfg.Estimates.Growth,
	}
	if flagInflation != "" {
		v, err := pipeline.ParseParameter(flagInflation)
		if err != nil {
			return p, fmt.Errorf("--inflation: %w", err)
		}
		p.EstimatedInflation = v
	}
	if flagGrowth != "" {
		v, err := pipeline.ParseParameter(flagGrowth)
		if err != nil {
			return p, fmt.Errorf("--growth: %w", err)
		}
		p.EstimatedGrowth = v
	}
	return p, nil
}

// newClient builds the API client. A missing base URL fails here, before
// any request is made.
func newClient(cfg config.Config) (*marketapi.Client, error) {
	u, err := baseURL(cfg)
	if err != nil {
		return nil, err
	}
	return marketapi.NewClient(u, marketapi.WithTimeout(cfg.Timeout()))
}

// newLogger builds the command logger. An empty output falls back to the
// configured file, then to stderr.
func newLogger(cfg config.Config, output string) (zerolog.Logger, func() error, error) {
	if output == "" {
		output = cfg.Log.File
	}
	level := cfg.Log.Level
	if flagQuiet {
		level = "warn"
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: cfg.Log.Format,
		Output: output,
	})
}

// defaultLogFile is where the dashboard logs, so the terminal stays clean.
func defaultLogFile() string {
	return filepath.Join(config.CacheDir(), "ratewatch.log")
}

// openHistory opens the snapshot history, or returns nil when disabled.
func openHistory(cfg config.Config) (*store.History, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	return store.Open(config.HistoryPath())
}
