package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/ratewatch/internal/cli"
	"github.com/theirongolddev/ratewatch/internal/config"
	"github.com/theirongolddev/ratewatch/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Start from the file on disk so flag overrides aren't persisted.
	cfg, err := config.Load()
	if err != nil {
		fmt.Println(cli.RenderWarning("Existing config is invalid, starting from defaults: " + err.Error()))
		cfg = config.DefaultConfig()
	}

	vals := tui.SetupValuesFrom(cfg)
	form := tui.NewSetupForm(&vals)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	if err := vals.Apply(&cfg); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	if cfg.API.BaseURL == "" {
		fmt.Printf("  No base URL saved; set %s or pass --base-url.\n", config.EnvBaseURL)
	}
	fmt.Println("  Run `ratewatch setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
