package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-tl-verge/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show <report-id-prefix>",
	Short: "Show a stored report by ID prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	r, err := db.GetReportByPrefix(cmd.Context(), prefix)
	if err != nil {
		return fmt.Errorf("query report: %w", err)
	}
	if r == nil {
		fmt.Fprintf(os.Stderr, "No report found with ID prefix %q\n", prefix)
		return nil
	}
	report.PrintStoredReport(os.Stdout, *r, !color.NoColor)
	return nil
}
