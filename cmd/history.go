package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-tl-verge/internal/report"
)

var (
	historyLast  int
	historyTrend bool
	historyChart string
)

var historyCmd = &cobra.Command{
	Use:   "history <username>",
	Short: "List stored reports for a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLast, "last", 0, "only show the N most recent reports")
	historyCmd.Flags().BoolVar(&historyTrend, "trend", false, "show changes between consecutive reports, oldest first")
	historyCmd.Flags().StringVar(&historyChart, "chart", "", "write an HTML trend chart to this file")
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	reports, err := db.ListReports(cmd.Context(), args[0], historyLast)
	if err != nil {
		return fmt.Errorf("list reports: %w", err)
	}
	if len(reports) == 0 {
		fmt.Fprintf(os.Stdout, "No reports stored for %s. Run 'verge profile %s' to add one.\n", args[0], args[0])
		return nil
	}

	if historyTrend {
		report.PrintTrend(os.Stdout, reports)
	} else {
		report.PrintHistory(os.Stdout, reports)
	}

	if historyChart != "" {
		chart := report.TrendChart(args[0], reports, report.DefaultChartConfig())
		if err := report.RenderFile(historyChart, chart); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Chart written: %s\n", historyChart)
	}
	return nil
}
