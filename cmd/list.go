package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every player with stored reports",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	users, err := db.ReportedUsers(cmd.Context())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		fmt.Fprintln(os.Stdout, "No reports stored yet. Run 'verge profile <username>' to add one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %7s  %s\n", "USERNAME", "REPORTS", "LAST PROFILED")
	fmt.Fprintf(os.Stdout, "%-20s  %7s  %s\n", "────────────────────", "───────", "────────────────")
	for _, u := range users {
		fmt.Fprintf(os.Stdout, "%-20s  %7d  %s\n",
			u.Username, u.Reports, u.LastReport.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
