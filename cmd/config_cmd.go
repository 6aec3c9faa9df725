package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/ratewatch/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [API]")
	if u, from := baseURLSource(cfg); u != "" {
		fmt.Printf("    Base URL: %s (%s)\n", u, from)
	} else {
		fmt.Println("    Base URL: not configured")
	}
	fmt.Printf("    Timeout:  %s\n", cfg.Timeout())
	fmt.Println()

	fmt.Println("  [Estimates]")
	fmt.Printf("    Inflation: %.2f%%\n", cfg.Estimates.Inflation)
	fmt.Printf("    Growth:    %.2f%%\n", cfg.Estimates.Growth)
	fmt.Println()

	fmt.Println("  [Refresh]")
	fmt.Printf("    Interval: %s\n", cfg.RefreshInterval())
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [History]")
	fmt.Printf("    Enabled: %v\n", cfg.History.Enabled)
	fmt.Printf("    Keep:    %d snapshots\n", cfg.History.Keep)
	fmt.Printf("    Path:    %s\n", config.HistoryPath())
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:  %s\n", cfg.Log.Level)
	fmt.Printf("    Format: %s\n", cfg.Log.Format)
	if cfg.Log.File != "" {
		fmt.Printf("    File:   %s\n", cfg.Log.File)
	} else {
		fmt.Printf("    File:   stderr (dashboard: %s)\n", defaultLogFile())
	}
	fmt.Println()

	fmt.Println("  Run `ratewatch setup` to reconfigure.")
	return nil
}

// baseURLSource reports the effective base URL and where it came from.
func baseURLSource(cfg config.Config) (string, string) {
	if v := strings.TrimSpace(flagBaseURL); v != "" {
		return v, "--base-url"
	}
	for _, env := range []string{config.EnvBaseURL, config.EnvBaseURLFallback} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, "$" + env
		}
	}
	return strings.TrimSpace(cfg.API.BaseURL), "config"
}
