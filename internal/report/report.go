package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-tl-verge/internal/model"
	"github.com/pable/go-tl-verge/internal/profile"
)

// Trait label colours, one per tone.
var (
	cPositive = color.RGB(182, 179, 244)
	cNegative = color.RGB(244, 182, 179)
	cNeutral  = color.New(color.Bold)
)

func paint(t model.Trait, colorize bool) string {
	if !colorize {
		return t.Label
	}
	switch t.Tone {
	case model.TonePositive:
		return cPositive.Sprint(t.Label)
	case model.ToneNegative:
		return cNegative.Sprint(t.Label)
	default:
		return cNeutral.Sprint(t.Label)
	}
}

func newTable(w io.Writer, rowAlign tw.Align) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: rowAlign},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintHeader prints a one-line summary of the subject.
func PrintHeader(w io.Writer, p profile.Profile) {
	s := p.Subject
	fmt.Fprintf(w, "\n%s  |  TR %.2f  |  #%d (top %.2f%%)  |  %.2f PPS  %.2f APM  %.2f VS  |  sample %d\n\n",
		strings.ToUpper(s.Username), s.Rating, s.Standing, 100*s.Percentile,
		s.PPS, s.APM, s.VS, p.BracketLower-p.BracketUpper)
}

// PrintTraits prints the findings in report order.
func PrintTraits(w io.Writer, traits []model.Trait, colorize bool) {
	table := newTable(w, tw.AlignLeft)
	table.Header("TRAIT", "DESCRIPTION")
	for _, t := range traits {
		table.Append(paint(t, colorize), t.Description)
	}
	table.Render()
}

// PrintPlaystyle prints the derived metrics, each deviation from the skill
// curve, and the four style scores.
func PrintPlaystyle(w io.Writer, p profile.Profile) {
	m := p.Playstyle.Metrics
	d := p.Playstyle.Deviations

	metrics := newTable(w, tw.AlignRight)
	metrics.Header("APP", "VS/APM", "DS/S", "DS/P", "GE", "SRAREA", "STATRANK")
	metrics.Append(
		fmt.Sprintf("%.4f", m.APP),
		fmt.Sprintf("%.4f", m.VSAPM),
		fmt.Sprintf("%.4f", m.DSPS),
		fmt.Sprintf("%.4f", m.DSPP),
		fmt.Sprintf("%.4f", m.GE),
		fmt.Sprintf("%.2f", m.SRArea),
		fmt.Sprintf("%.4f", m.StatRank),
	)
	metrics.Render()
	fmt.Fprintln(w)

	devs := newTable(w, tw.AlignRight)
	devs.Header("Δ APM", "Δ PPS", "Δ VS/APM", "Δ APP", "Δ DS/P", "Δ GE")
	devs.Append(pct(d.APM), pct(d.PPS), pct(d.VSAPM), pct(d.APP), pct(d.DSPP), pct(d.GE))
	devs.Render()
	fmt.Fprintln(w)

	c := p.Playstyle.Classification
	sec, hasSec := c.Secondary.Get()
	scores := newTable(w, tw.AlignRight)
	scores.Header(" ", "STYLE", "SCORE", "W", "PLAYED", "WIN%")
	for _, s := range model.Styles {
		marker := " "
		switch {
		case s == c.Primary:
			marker = "*"
		case hasSec && s == sec:
			marker = "+"
		}
		r := p.Tally.Record(s)
		winPct := "-"
		if rate, ok := r.WinRate(); ok {
			winPct = fmt.Sprintf("%.1f%%", 100*rate)
		}
		scores.Append(
			marker,
			s.Title(),
			fmt.Sprintf("%.4f", p.Playstyle.Scores[s]),
			strconv.Itoa(r.Wins),
			strconv.Itoa(r.Played),
			winPct,
		)
	}
	scores.Render()
	if p.Tally.Skipped > 0 {
		fmt.Fprintf(w, "  (%d opponent(s) with unusable stats left out)\n", p.Tally.Skipped)
	}
}

func pct(v float64) string {
	return fmt.Sprintf("%+.1f%%", 100*v)
}

// PrintPercentiles prints the subject's ranks within the skill bracket.
func PrintPercentiles(w io.Writer, p profile.Profile) {
	if p.Percentiles == nil {
		fmt.Fprintln(w, "No peers in skill bracket; percentiles unavailable.")
		return
	}
	table := newTable(w, tw.AlignRight)
	table.Header("PEERS", "PPS %ILE", "APM %ILE", "VS %ILE", "TR %ILE")
	table.Append(
		strconv.Itoa(p.BracketLower-p.BracketUpper),
		fmt.Sprintf("%.1f", p.Percentiles.PPS),
		fmt.Sprintf("%.1f", p.Percentiles.APM),
		fmt.Sprintf("%.1f", p.Percentiles.VS),
		fmt.Sprintf("%.1f", p.Percentiles.Rating),
	)
	table.Render()
}

// PrintHistory lists stored reports, newest first.
func PrintHistory(w io.Writer, reports []model.StoredReport) {
	table := newTable(w, tw.AlignRight)
	table.Header("ID", "DATE", "TR", "RANK", "PPS", "APM", "VS", "STYLE", "TRAITS")
	for _, r := range reports {
		style := r.Primary
		if r.Secondary != "" {
			style += "/" + r.Secondary
		}
		table.Append(
			r.ID[:min(8, len(r.ID))],
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", r.Subject.Rating),
			strconv.Itoa(r.Subject.Standing),
			fmt.Sprintf("%.2f", r.Subject.PPS),
			fmt.Sprintf("%.2f", r.Subject.APM),
			fmt.Sprintf("%.2f", r.Subject.VS),
			style,
			strconv.Itoa(len(r.Traits)),
		)
	}
	table.Render()
}

// PrintTrend prints the change in rating and rates between consecutive
// stored reports, oldest first. reports must be newest first.
func PrintTrend(w io.Writer, reports []model.StoredReport) {
	table := newTable(w, tw.AlignRight)
	table.Header("DATE", "TR", "ΔTR", "PPS", "ΔPPS", "APM", "ΔAPM", "VS", "ΔVS", "STYLE")
	for i := len(reports) - 1; i >= 0; i-- {
		r := reports[i].Subject
		dTR, dPPS, dAPM, dVS := "-", "-", "-", "-"
		if i+1 < len(reports) {
			prev := reports[i+1].Subject
			dTR = fmt.Sprintf("%+.2f", r.Rating-prev.Rating)
			dPPS = fmt.Sprintf("%+.2f", r.PPS-prev.PPS)
			dAPM = fmt.Sprintf("%+.2f", r.APM-prev.APM)
			dVS = fmt.Sprintf("%+.2f", r.VS-prev.VS)
		}
		table.Append(
			reports[i].CreatedAt.Local().Format("2006-01-02"),
			fmt.Sprintf("%.2f", r.Rating), dTR,
			fmt.Sprintf("%.2f", r.PPS), dPPS,
			fmt.Sprintf("%.2f", r.APM), dAPM,
			fmt.Sprintf("%.2f", r.VS), dVS,
			reports[i].Primary,
		)
	}
	table.Render()
}

// PrintStoredReport prints a saved report: the snapshot taken at the time
// and its findings.
func PrintStoredReport(w io.Writer, r model.StoredReport, colorize bool) {
	s := r.Subject
	style := r.Primary
	if r.Secondary != "" {
		style += " / " + r.Secondary
	}
	fmt.Fprintf(w, "\nReport %s  |  %s  |  %s\n", r.ID, strings.ToUpper(s.Username), r.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "TR %.2f  |  #%d  |  %.2f PPS  %.2f APM  %.2f VS  |  style %s\n\n",
		s.Rating, s.Standing, s.PPS, s.APM, s.VS, style)
	PrintTraits(w, r.Traits, colorize)
}
