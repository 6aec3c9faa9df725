package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/ratewatch/internal/cli"
	"github.com/theirongolddev/ratewatch/internal/store"

	"github.com/spf13/cobra"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded snapshots",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Number of snapshots to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	hist, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if hist == nil {
		return errors.New("history is disabled")
	}
	defer func() { _ = hist.Close() }()

	recs, err := hist.Recent(flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println()
		fmt.Println(cli.RenderMuted("No snapshots recorded yet. Run `ratewatch status` or the dashboard."))
		fmt.Println()
		return nil
	}

	total, err := hist.Count()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		m := marketRows(&r.Snapshot)
		rows = append(rows, []string{
			r.Snapshot.FetchedAt.Local().Format("2006-01-02 15:04"),
			m[0][1], m[1][1], m[2][1], m[3][1],
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("HISTORY  |  %d of %d snapshots", len(recs), total)))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Fetched", "Inflation", "T-Bill", "Bond", "TIPS"},
		Rows:    rows,
	}))

	fmt.Printf("  Latest: %s\n", cli.FormatAge(recs[0].Snapshot.FetchedAt, time.Now()))
	if series := tbillSeries(recs); len(series) > 1 {
		change := series[len(series)-1] - series[0]
		fmt.Printf("  T-Bill trend   %s  %s\n", cli.RenderSparkline(series), cli.FormatBasisPoints(change))
	}
	fmt.Println()
	return nil
}

// tbillSeries returns T-bill yields oldest first, skipping nulls.
func tbillSeries(recs []store.Record) []float64 {
	out := make([]float64, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		if v := recs[i].Snapshot.TBill; v != nil {
			out = append(out, *v)
		}
	}
	return out
}
