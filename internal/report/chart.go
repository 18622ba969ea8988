package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/pable/go-tl-verge/internal/model"
	"github.com/pable/go-tl-verge/internal/profile"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Width      string   // e.g. "900px"
	Height     string   // e.g. "420px"
	Theme      string   // echarts theme name
	ShowLegend bool     // show legend
	Colors     []string // series colours
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:      "900px",
		Height:     "420px",
		Theme:      "light",
		ShowLegend: true,
		Colors:     []string{"#B6B3F4", "#F4B6B3", "#5470C6", "#91CC75"},
	}
}

func newBar(title, subtitle string, cfg ChartConfig) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  cfg.Width,
			Height: cfg.Height,
			Theme:  cfg.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(cfg.ShowLegend),
		}),
		charts.WithColorsOpts(opts.Colors(cfg.Colors)),
	)
	return bar
}

// ProfileCharts builds the style score and curve deviation charts for p.
func ProfileCharts(p profile.Profile, cfg ChartConfig) []components.Charter {
	name := strings.ToUpper(p.Subject.Username)

	labels := make([]string, len(model.Styles))
	scores := make([]opts.BarData, len(model.Styles))
	for i, s := range model.Styles {
		labels[i] = s.Title()
		scores[i] = opts.BarData{Value: p.Playstyle.Scores[s]}
	}
	styles := newBar(name+" playstyle", "archetype scores", cfg)
	styles.SetXAxis(labels).
		AddSeries("Score", scores).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	d := p.Playstyle.Deviations
	devLabels := []string{"APM", "PPS", "VS/APM", "APP", "DS/P", "GE"}
	devValues := []float64{d.APM, d.PPS, d.VSAPM, d.APP, d.DSPP, d.GE}
	devData := make([]opts.BarData, len(devValues))
	for i, v := range devValues {
		devData[i] = opts.BarData{Value: fmt.Sprintf("%.2f", 100*v)}
	}
	devs := newBar(name+" vs. the skill curve", "% above (+) or below (-) expected", cfg)
	devs.SetXAxis(devLabels).AddSeries("Deviation %", devData)

	out := []components.Charter{styles, devs}
	if p.Percentiles != nil {
		pc := p.Percentiles
		perc := newBar(name+" within bracket", fmt.Sprintf("%d peers", p.BracketLower-p.BracketUpper), cfg)
		perc.SetXAxis([]string{"PPS", "APM", "VS", "TR"}).AddSeries("Percentile", []opts.BarData{
			{Value: pc.PPS}, {Value: pc.APM}, {Value: pc.VS}, {Value: pc.Rating},
		})
		out = append(out, perc)
	}
	return out
}

// TrendChart plots rating and rates across stored reports. reports must be
// newest first.
func TrendChart(username string, reports []model.StoredReport, cfg ChartConfig) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  cfg.Width,
			Height: cfg.Height,
			Theme:  cfg.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    strings.ToUpper(username) + " over time",
			Subtitle: fmt.Sprintf("%d saved reports", len(reports)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(cfg.ShowLegend),
		}),
	)

	n := len(reports)
	dates := make([]string, n)
	pps := make([]opts.LineData, n)
	apm := make([]opts.LineData, n)
	vs := make([]opts.LineData, n)
	for i := range reports {
		r := reports[n-1-i]
		dates[i] = r.CreatedAt.Local().Format("2006-01-02")
		pps[i] = opts.LineData{Value: r.Subject.PPS}
		apm[i] = opts.LineData{Value: r.Subject.APM}
		vs[i] = opts.LineData{Value: r.Subject.VS}
	}
	line.SetXAxis(dates).
		AddSeries("PPS", pps).
		AddSeries("APM", apm).
		AddSeries("VS", vs).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

// RenderPage writes every chart to w as one HTML page.
func RenderPage(w io.Writer, cs ...components.Charter) error {
	page := components.NewPage()
	page.AddCharts(cs...)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderFile writes every chart to a new HTML file at path.
func RenderFile(path string, cs ...components.Charter) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()
	return RenderPage(f, cs...)
}
