package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-tl-verge/internal/acquire"
	"github.com/pable/go-tl-verge/internal/report"
	"github.com/pable/go-tl-verge/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the API and the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

type shell struct {
	ctx     context.Context
	db      *storage.DB
	fetcher *acquire.Fetcher
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	fetcher, release, err := newFetcher(ctx, db, false)
	if err != nil {
		return err
	}
	defer release()
	sh := shell{ctx: ctx, db: db, fetcher: fetcher}

	cGreeting.Println("verge shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("verge")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			sh.list()
		case "profile", "p":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: profile <username> [-v]")
				continue
			}
			verbose := len(args) > 1 && (args[1] == "-v" || args[1] == "--verbose")
			sh.profile(args[0], verbose)
		case "history":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: history <username>")
				continue
			}
			sh.history(args[0])
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <report-id-prefix>")
				continue
			}
			sh.show(args[0])
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"profile <username> [-v]", "profile a player and save the report"},
		{"history <username>", "list stored reports for a player"},
		{"show <report-id-prefix>", "show a stored report"},
		{"list", "list every player with stored reports"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-30s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (sh shell) profile(username string, verbose bool) {
	p, err := buildProfile(sh.ctx, sh.fetcher, username)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintHeader(os.Stdout, p)
	report.PrintTraits(os.Stdout, p.Traits, !color.NoColor)
	if verbose {
		fmt.Println()
		report.PrintPlaystyle(os.Stdout, p)
		fmt.Println()
		report.PrintPercentiles(os.Stdout, p)
	}
	saved, err := sh.db.SaveReport(sh.ctx, storedReport(p))
	if err != nil {
		cWarn.Fprintf(os.Stderr, "report not saved: %v\n", err)
		return
	}
	cMuted.Printf("saved as %s\n", saved.ID[:8])
}

func (sh shell) history(username string) {
	reports, err := sh.db.ListReports(sh.ctx, username, 0)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(reports) == 0 {
		cMuted.Printf("No reports stored for %s.\n", username)
		return
	}
	report.PrintHistory(os.Stdout, reports)
}

func (sh shell) show(prefix string) {
	r, err := sh.db.GetReportByPrefix(sh.ctx, prefix)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if r == nil {
		fmt.Fprintf(os.Stderr, "no report found with prefix %q\n", prefix)
		return
	}
	report.PrintStoredReport(os.Stdout, *r, !color.NoColor)
}

func (sh shell) list() {
	users, err := sh.db.ReportedUsers(sh.ctx)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(users) == 0 {
		cMuted.Println("No reports stored yet.")
		return
	}
	cHeader.Fprintf(os.Stdout, "%-20s  %7s  %s\n", "USERNAME", "REPORTS", "LAST PROFILED")
	cMuted.Fprintf(os.Stdout, "%-20s  %7s  %s\n", "────────────────────", "───────", "────────────────")
	for _, u := range users {
		fmt.Fprintf(os.Stdout, "%-20s  %7d  %s\n",
			u.Username, u.Reports, u.LastReport.Local().Format("2006-01-02 15:04"))
	}
}
