package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/chargesense/internal/cli"
	"github.com/theirongolddev/chargesense/internal/pipeline"
	"github.com/theirongolddev/chargesense/internal/store"
)

var (
	flagHistoryLimit int
	flagHistoryPrune int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previous runs kept in the local cache",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Number of runs to show")
	historyCmd.Flags().IntVar(&flagHistoryPrune, "prune", 0, "Keep only the newest N runs")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	if flagNoCache {
		return errors.New("history needs the cache; drop --no-cache")
	}

	cache, err := store.Open(pipeline.CachePath())
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	if flagHistoryPrune > 0 {
		n, err := cache.PruneRuns(flagHistoryPrune)
		if err != nil {
			return fmt.Errorf("pruning history: %w", err)
		}
		fmt.Printf("  Removed %s\n", cli.Pluralize(int(n), "run"))
	}

	runs, err := cache.ListRuns(flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("\n  No runs yet. Upload a bookings export with --bookings.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		marketing := "-"
		if r.HasMarketing {
			marketing = "yes"
		}
		rows = append(rows, []string{
			r.GeneratedAt.Local().Format("2006-01-02 15:04"),
			r.WeekStart,
			r.Outcome,
			cli.FormatNumber(int64(r.Students)),
			cli.FormatCurrency(r.TotalActual),
			cli.FormatCurrency(r.AvgCharge),
			marketing,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Run history",
		Headers:  []string{"When", "Week", "Outcome", "Students", "Charges", "Avg", "Mkt"},
		Rows:     rows,
		LeftCols: 3,
	}))
	fmt.Println()
	return nil
}
