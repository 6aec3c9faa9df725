package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/ratewatch/internal/cli"
	"github.com/theirongolddev/ratewatch/internal/config"
	"github.com/theirongolddev/ratewatch/internal/marketapi"
	"github.com/theirongolddev/ratewatch/internal/model"
	"github.com/theirongolddev/ratewatch/internal/pipeline"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Fetch the current indicators once and print derived metrics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	params, err := parameters(cfg)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, "")
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	client, err := newClient(cfg)
	if errors.Is(err, config.ErrMissingBaseURL) {
		printMissingBaseURL()
		return nil
	}
	if err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Fetching market data from %s...\n", client.BaseURL())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout()+5*time.Second)
	defer cancel()

	snap, err := client.FetchSnapshot(ctx)
	if err != nil {
		log.Error().Err(err).Str("base_url", client.BaseURL()).Msg("fetch failed")
		if errors.Is(err, marketapi.ErrRateLimited) {
			return errors.New("rate limited by the indicator API, try again in a minute")
		}
		return fmt.Errorf("failed to load market data: %w", err)
	}

	derived := pipeline.Derive(snap, params)

	fmt.Println()
	fmt.Println(cli.RenderTitle("MARKET INDICATORS"))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Market",
		Headers: []string{"Indicator", "Value"},
		Rows:    marketRows(snap),
	}))
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Derived",
		Headers: []string{"Metric", "Value"},
		Rows:    derivedRows(derived),
	}))
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Estimates",
		Headers: []string{"Parameter", "Value"},
		Rows: [][]string{
			{"Estimated Inflation", cli.FormatRate(&params.EstimatedInflation)},
			{"Estimated Growth", cli.FormatRate(&params.EstimatedGrowth)},
		},
	}))

	if hist, err := openHistory(cfg); err != nil {
		log.Warn().Err(err).Msg("history unavailable")
	} else if hist != nil {
		if _, err := hist.SaveSnapshot(snap); err != nil {
			log.Warn().Err(err).Msg("record snapshot")
		} else if _, err := hist.Prune(cfg.History.Keep); err != nil {
			log.Warn().Err(err).Msg("prune history")
		}
		_ = hist.Close()
	}

	fmt.Printf("  Fetched at %s\n\n", snap.FetchedAt.Local().Format("3:04:05 PM"))
	return nil
}

func marketRows(snap *model.MarketSnapshot) [][]string {
	var bond, tips *float64
	if lt := snap.LongTermRates; lt != nil {
		bond, tips = &lt.BondYield, &lt.TIPSYield
	}
	return [][]string{
		{"Inflation", cli.FormatRate(snap.Inflation)},
		{"T-Bill", cli.FormatRate(snap.TBill)},
		{"Bond Yield", cli.FormatRate(bond)},
		{"TIPS Yield", cli.FormatRate(tips)},
	}
}

func derivedRows(d model.DerivedMetrics) [][]string {
	return [][]string{
		{"Effective Real Yield", cli.FormatSignedRate(d.EffectiveRealYield)},
		{"Market Implied Inflation", cli.FormatRate(d.MarketImpliedInflation)},
		{"Delta Inflation", cli.FormatSignedRate(d.DeltaInflation)},
		{"Delta Growth", cli.FormatSignedRate(d.DeltaGrowth)},
		{"Estimated Returns", cli.FormatRate(d.EstimatedReturns)},
	}
}

func printMissingBaseURL() {
	fmt.Println()
	fmt.Println("  No indicator API configured.")
	fmt.Println()
	fmt.Println("  Configure it:")
	fmt.Println("    ratewatch setup                                        (interactive)")
	fmt.Printf("    %s=https://api.example.com ratewatch status   (one-shot)\n", config.EnvBaseURL)
	fmt.Println("    ratewatch status --base-url https://api.example.com")
	fmt.Println()
}
