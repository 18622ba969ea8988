package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pable/go-tl-verge/internal/model"
	"github.com/pable/go-tl-verge/internal/profile"
)

// Document is the JSON form of a profile.
type Document struct {
	Username    string                         `json:"username"`
	GeneratedAt time.Time                      `json:"generated_at"`
	Subject     model.PlayerSnapshot           `json:"subject"`
	Metrics     Metrics                        `json:"metrics"`
	Scores      map[string]float64             `json:"scores"`
	Primary     model.Style                    `json:"primary"`
	Secondary   *model.Style                   `json:"secondary,omitempty"`
	Bracket     Bracket                        `json:"bracket"`
	Percentiles *profile.Percentiles           `json:"percentiles,omitempty"`
	Momentum    *profile.Momentum              `json:"momentum,omitempty"`
	StyleRecord map[string]profile.StyleRecord `json:"style_record"`
	Skipped     int                            `json:"opponents_skipped"`
	Traits      []model.Trait                  `json:"traits"`
}

// Metrics are the derived metrics and their curve deviations.
type Metrics struct {
	APP        float64            `json:"app"`
	VSAPM      float64            `json:"vsapm"`
	DSPS       float64            `json:"dsps"`
	DSPP       float64            `json:"dspp"`
	GE         float64            `json:"ge"`
	SRArea     float64            `json:"srarea"`
	StatRank   float64            `json:"statrank"`
	Deviations map[string]float64 `json:"deviations"`
}

// Bracket is the leaderboard window used for percentiles.
type Bracket struct {
	Upper int `json:"upper"`
	Lower int `json:"lower"`
	Size  int `json:"size"`
}

// NewDocument converts p for JSON output.
func NewDocument(p profile.Profile, generatedAt time.Time) Document {
	m, d := p.Playstyle.Metrics, p.Playstyle.Deviations
	doc := Document{
		Username:    p.Subject.Username,
		GeneratedAt: generatedAt.UTC(),
		Subject:     p.Subject,
		Metrics: Metrics{
			APP: m.APP, VSAPM: m.VSAPM, DSPS: m.DSPS, DSPP: m.DSPP, GE: m.GE,
			SRArea: m.SRArea, StatRank: m.StatRank,
			Deviations: map[string]float64{
				"apm": d.APM, "pps": d.PPS, "vsapm": d.VSAPM, "app": d.APP, "dspp": d.DSPP, "ge": d.GE,
			},
		},
		Scores:      make(map[string]float64, len(model.Styles)),
		Primary:     p.Playstyle.Classification.Primary,
		Bracket:     Bracket{Upper: p.BracketUpper, Lower: p.BracketLower, Size: p.BracketLower - p.BracketUpper},
		Percentiles: p.Percentiles,
		Momentum:    p.Momentum,
		StyleRecord: make(map[string]profile.StyleRecord, len(model.Styles)),
		Skipped:     p.Tally.Skipped,
		Traits:      p.Traits,
	}
	if s, ok := p.Playstyle.Classification.Secondary.Get(); ok {
		doc.Secondary = &s
	}
	for _, s := range model.Styles {
		doc.Scores[s.String()] = p.Playstyle.Scores[s]
		doc.StyleRecord[s.String()] = p.Tally.Record(s)
	}
	if doc.Traits == nil {
		doc.Traits = []model.Trait{}
	}
	return doc
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
