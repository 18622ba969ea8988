package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-tl-verge/internal/acquire"
	"github.com/pable/go-tl-verge/internal/model"
	"github.com/pable/go-tl-verge/internal/profile"
	"github.com/pable/go-tl-verge/internal/report"
)

var (
	profileJSON    bool
	profileChart   string
	profileNoCache bool
	profileNoColor bool
	profileSave    bool
	profileVerbose bool
)

var profileCmd = &cobra.Command{
	Use:   "profile <username>",
	Short: "Profile a Tetra League player",
	Long: `Fetch a player's league stats, recent matches and every recent opponent,
then print the findings: momentum, percentile standouts within the player's
skill bracket, record against each playstyle, and the player's own style.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().BoolVar(&profileJSON, "json", false, "print the full profile as JSON")
	profileCmd.Flags().StringVar(&profileChart, "chart", "", "write an HTML chart page to this file")
	profileCmd.Flags().BoolVar(&profileNoCache, "no-cache", false, "ignore cached snapshots (fresh data is still cached)")
	profileCmd.Flags().BoolVar(&profileNoColor, "no-color", false, "disable coloured output")
	profileCmd.Flags().BoolVar(&profileSave, "save", true, "store the report in history")
	profileCmd.Flags().BoolVarP(&profileVerbose, "verbose", "v", false, "also print metrics, deviations and style scores")
}

func runProfile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if profileNoColor {
		color.NoColor = true
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	fetcher, release, err := newFetcher(ctx, db, profileNoCache)
	if err != nil {
		return err
	}
	defer release()

	if !profileJSON {
		fmt.Fprintf(os.Stderr, "Fetching %s and recent opponents...\n", args[0])
	}
	p, err := buildProfile(ctx, fetcher, args[0])
	if err != nil {
		return err
	}

	if profileJSON {
		if err := report.WriteJSON(os.Stdout, report.NewDocument(p, time.Now())); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	} else {
		report.PrintHeader(os.Stdout, p)
		report.PrintTraits(os.Stdout, p.Traits, !color.NoColor)
		if profileVerbose {
			fmt.Fprintln(os.Stdout)
			report.PrintPlaystyle(os.Stdout, p)
			fmt.Fprintln(os.Stdout)
			report.PrintPercentiles(os.Stdout, p)
		}
	}

	if profileChart != "" {
		if err := report.RenderFile(profileChart, report.ProfileCharts(p, report.DefaultChartConfig())...); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Chart written: %s\n", profileChart)
	}

	if profileSave {
		saved, err := db.SaveReport(ctx, storedReport(p))
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		logger.Debug("report saved", zap.String("id", saved.ID), zap.String("username", p.Subject.Username))
	}
	return nil
}

// buildProfile runs acquisition and the profiling core for one username.
func buildProfile(ctx context.Context, f *acquire.Fetcher, username string) (profile.Profile, error) {
	start := time.Now()
	in, err := f.Gather(ctx, username)
	if err != nil {
		return profile.Profile{}, explain(username, err)
	}
	p, err := profile.Build(in)
	if err != nil {
		return profile.Profile{}, explain(username, err)
	}
	logger.Info("profile built",
		zap.String("username", p.Subject.Username),
		zap.Int("matches", len(in.History)),
		zap.Int("opponents", len(in.Opponents)),
		zap.Int("bracket", p.BracketLower-p.BracketUpper),
		zap.Duration("elapsed", time.Since(start)),
	)
	return p, nil
}

// explain rewords the run-level failures for the terminal.
func explain(username string, err error) error {
	switch {
	case errors.Is(err, profile.ErrSubjectNotFound):
		return fmt.Errorf("no TETR.IO user named %q: %w", username, err)
	case errors.Is(err, profile.ErrSubjectExcluded):
		return fmt.Errorf("%s is banned and cannot be profiled: %w", username, err)
	case errors.Is(err, profile.ErrNoRankedHistory):
		return fmt.Errorf("party's over for %s, this can happen if the user hasn't played any TETRA LEAGUE games: %w", username, err)
	default:
		return fmt.Errorf("profile %s: %w", username, err)
	}
}

func storedReport(p profile.Profile) model.StoredReport {
	r := model.StoredReport{
		Subject: p.Subject,
		Primary: p.Playstyle.Classification.Primary.String(),
		Traits:  p.Traits,
	}
	if s, ok := p.Playstyle.Classification.Secondary.Get(); ok {
		r.Secondary = s.String()
	}
	return r
}
