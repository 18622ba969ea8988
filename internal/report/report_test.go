package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pable/go-tl-verge/internal/model"
	"github.com/pable/go-tl-verge/internal/profile"
)

func testProfile(t *testing.T, withBoard bool) profile.Profile {
	t.Helper()
	subject := model.PlayerSnapshot{
		ID: "id-subject", Username: "subject",
		PPS: 2.5, APM: 150, VS: 300,
		Rating: 21000, Percentile: 0.5, Standing: 5,
	}
	var board model.Leaderboard
	if withBoard {
		for i := 0; i < 10; i++ {
			board = append(board, model.PlayerSnapshot{
				Username: "p", Standing: i + 1,
				PPS: 2 + 0.1*float64(i), APM: 120 + 5*float64(i), VS: 250 + 10*float64(i),
				Rating: 22000 - 100*float64(i),
			})
		}
	}
	p, err := profile.Build(profile.Input{
		Subject: subject,
		History: model.MatchHistory{
			{Participants: [2]string{"subject", "a"}},
			{Participants: [2]string{"subject", "b"}},
		},
		Opponents: []profile.OpponentResult{
			{Opponent: model.PlayerSnapshot{Username: "a", PPS: 2.2, APM: 130, VS: 240}, SubjectWon: true},
			{Opponent: model.PlayerSnapshot{Username: "b", PPS: 2.2, APM: 130, VS: 240}, SubjectWon: true},
		},
		Leaderboard: board,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return p
}

func TestPrintTraitsPlain(t *testing.T) {
	p := testProfile(t, true)
	var buf bytes.Buffer
	PrintTraits(&buf, p.Traits, false)
	out := buf.String()
	for _, tr := range p.Traits {
		if !strings.Contains(out, tr.Label) {
			t.Errorf("output missing label %q", tr.Label)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("expected no escape sequences with colour off")
	}
}

func TestPaint(t *testing.T) {
	tr := model.Trait{Label: "HIGH APM", Tone: model.TonePositive}
	if got := paint(tr, false); got != "HIGH APM" {
		t.Errorf("paint without colour = %q", got)
	}
	if got := paint(tr, true); !strings.Contains(got, "HIGH APM") {
		t.Errorf("paint with colour lost the label: %q", got)
	}
}

func TestPrintPlaystyle(t *testing.T) {
	p := testProfile(t, true)
	var buf bytes.Buffer
	PrintPlaystyle(&buf, p)
	out := buf.String()
	for _, s := range model.Styles {
		if !strings.Contains(out, s.Title()) {
			t.Errorf("score table missing %s", s.Title())
		}
	}
	if !strings.Contains(out, "100.0%") {
		t.Errorf("expected opener win rate in output:\n%s", out)
	}
}

func TestPrintPercentilesEmpty(t *testing.T) {
	p := testProfile(t, false)
	var buf bytes.Buffer
	PrintPercentiles(&buf, p)
	if !strings.Contains(buf.String(), "unavailable") {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name        string
		withBoard   bool
		percentiles bool
	}{
		{"with leaderboard", true, true},
		{"without leaderboard", false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := testProfile(t, tc.withBoard)
			var buf bytes.Buffer
			if err := WriteJSON(&buf, NewDocument(p, time.Unix(0, 0))); err != nil {
				t.Fatalf("WriteJSON: %v", err)
			}
			var got map[string]any
			if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got["primary"] != "plonker" {
				t.Errorf("primary = %v, want plonker", got["primary"])
			}
			if got["secondary"] != "opener" {
				t.Errorf("secondary = %v, want opener", got["secondary"])
			}
			if _, ok := got["percentiles"]; ok != tc.percentiles {
				t.Errorf("percentiles present = %v, want %v", ok, tc.percentiles)
			}
			scores, _ := got["scores"].(map[string]any)
			if len(scores) != 4 {
				t.Errorf("scores = %v, want 4 entries", scores)
			}
		})
	}
}

func TestPrintHistoryAndTrend(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reports := []model.StoredReport{
		{ID: "bbbbbbbb-2", CreatedAt: t0.Add(48 * time.Hour), Primary: "plonker", Secondary: "opener",
			Subject: model.PlayerSnapshot{Rating: 21100, PPS: 2.6, APM: 155, VS: 310}},
		{ID: "aaaaaaaa-1", CreatedAt: t0, Primary: "plonker",
			Subject: model.PlayerSnapshot{Rating: 21000, PPS: 2.5, APM: 150, VS: 300}},
	}

	var hist bytes.Buffer
	PrintHistory(&hist, reports)
	if !strings.Contains(hist.String(), "plonker/opener") {
		t.Errorf("history missing combined style:\n%s", hist.String())
	}
	if strings.Contains(hist.String(), "bbbbbbbb-2") {
		t.Error("expected ids to be shortened")
	}

	var trend bytes.Buffer
	PrintTrend(&trend, reports)
	out := trend.String()
	if !strings.Contains(out, "+100.00") {
		t.Errorf("trend missing rating delta:\n%s", out)
	}
	older := t0.Local().Format("2006-01-02")
	newer := t0.Add(48 * time.Hour).Local().Format("2006-01-02")
	if strings.Index(out, older) > strings.Index(out, newer) {
		t.Error("expected oldest report first")
	}
}

func TestRenderPage(t *testing.T) {
	p := testProfile(t, true)
	var buf bytes.Buffer
	if err := RenderPage(&buf, ProfileCharts(p, DefaultChartConfig())...); err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "SUBJECT playstyle") {
		t.Error("expected chart title in page")
	}
	if !strings.Contains(out, "echarts") {
		t.Error("expected echarts assets in page")
	}
}

func TestPrintStoredReport(t *testing.T) {
	r := model.StoredReport{
		ID:        "0b7c1c7e-aaaa",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Subject:   model.PlayerSnapshot{Username: "alice", Rating: 21000, Standing: 40, PPS: 2.5, APM: 150, VS: 300},
		Primary:   "plonker",
		Secondary: "opener",
		Traits:    []model.Trait{{Label: "HIGH APM", Description: "This user has a high average APM", Tone: model.TonePositive}},
	}
	var buf bytes.Buffer
	PrintStoredReport(&buf, r, false)
	out := buf.String()
	for _, want := range []string{"ALICE", "plonker / opener", "HIGH APM", "0b7c1c7e-aaaa"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
