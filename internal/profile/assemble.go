package profile

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pable/go-tl-verge/internal/model"
)

// Percentile bounds for HIGH/LOW findings.
const (
	highPercentile = 75
	lowPercentile  = 25
)

// Input is everything a profiling run consumes. Opponents must stay
// paired with the outcome of the match they were drawn from.
type Input struct {
	Subject     model.PlayerSnapshot
	History     model.MatchHistory
	Opponents   []OpponentResult
	Leaderboard model.Leaderboard
}

// Percentiles are the subject's ranks within the skill bracket.
type Percentiles struct {
	PPS    float64 `json:"pps"`
	APM    float64 `json:"apm"`
	VS     float64 `json:"vs"`
	Rating float64 `json:"rating"`
}

// Profile is the full result of a profiling run.
type Profile struct {
	Subject   model.PlayerSnapshot
	Playstyle Playstyle

	BracketUpper int
	BracketLower int
	// Percentiles is nil when the bracket held no peers.
	Percentiles *Percentiles
	// Momentum is nil when fewer than two matches were played.
	Momentum *Momentum
	Tally    StyleTally

	Traits []model.Trait
}

// Report returns only the ordered findings for in.
func Report(in Input) ([]model.Trait, error) {
	p, err := Build(in)
	if err != nil {
		return nil, err
	}
	return p.Traits, nil
}

// Build profiles in.Subject. It fails when the subject is banned, has no
// match history, or has metrics that cannot be normalised.
func Build(in Input) (Profile, error) {
	if in.Subject.Banned() {
		return Profile{}, fmt.Errorf("%s: %w", in.Subject.Username, ErrSubjectExcluded)
	}
	if len(in.History) == 0 {
		return Profile{}, fmt.Errorf("%s: %w", in.Subject.Username, ErrNoRankedHistory)
	}

	ps, err := Analyze(in.Subject)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{Subject: in.Subject, Playstyle: ps}

	b := NewBracket(in.Subject, in.Leaderboard)
	p.BracketUpper, p.BracketLower = b.Upper, b.Lower
	pct, err := bracketPercentiles(in.Subject, b)
	switch {
	case err == nil:
		p.Percentiles = &pct
	case !errors.Is(err, ErrEmptySample):
		return Profile{}, err
	}

	if m, ok := ClassifyMomentum(in.History.Outcomes(in.Subject.Username)); ok {
		p.Momentum = &m
	}
	p.Tally = FoldOpponents(in.Opponents)

	p.Traits = traits(p)
	return p, nil
}

func bracketPercentiles(s model.PlayerSnapshot, b Bracket) (Percentiles, error) {
	var (
		pct Percentiles
		err error
	)
	if pct.PPS, err = PercentileRank(s.PPS, b.PPS); err != nil {
		return Percentiles{}, err
	}
	if pct.APM, err = PercentileRank(s.APM, b.APM); err != nil {
		return Percentiles{}, err
	}
	if pct.VS, err = PercentileRank(s.VS, b.VS); err != nil {
		return Percentiles{}, err
	}
	if pct.Rating, err = PercentileRank(s.Rating, b.Rating); err != nil {
		return Percentiles{}, err
	}
	return pct, nil
}

func traits(p Profile) []model.Trait {
	var out []model.Trait
	if p.Momentum != nil {
		out = append(out, momentumTrait(*p.Momentum))
	}
	if p.Percentiles != nil {
		for _, c := range [...]struct {
			name string
			v    float64
		}{{"PPS", p.Percentiles.PPS}, {"APM", p.Percentiles.APM}, {"VS", p.Percentiles.VS}} {
			if t, ok := percentileTrait(c.name, c.v); ok {
				out = append(out, t)
			}
		}
	}
	for _, s := range model.Styles {
		if t, ok := styleWinRateTrait(s, p.Tally.Record(s)); ok {
			out = append(out, t)
		}
	}
	c := p.Playstyle.Classification
	if s, ok := c.Secondary.Get(); ok {
		out = append(out, styleTrait(s))
	}
	return append(out, styleTrait(c.Primary))
}

func momentumTrait(m Momentum) model.Trait {
	var t model.Trait
	after := "lost"
	if m.LastWon {
		after = "won"
	}
	switch m.Mood {
	case MoodGood:
		t = model.Trait{Label: "GOOD MOOD", Tone: model.TonePositive,
			Description: "This user tends to continue winning if they won their previous match."}
	case MoodOverConfident:
		t = model.Trait{Label: "OVER CONFIDENT", Tone: model.ToneNegative,
			Description: "This user tends to lose if they won their previous match."}
	case MoodBad:
		t = model.Trait{Label: "BAD MOOD", Tone: model.ToneNegative,
			Description: "This user tends to continue losing if they lost their previous match."}
	case MoodVengeance:
		t = model.Trait{Label: "VENGEANCE", Tone: model.TonePositive,
			Description: "This user tends to win if they lost their previous match."}
	default:
		t = model.Trait{Label: "LEVEL HEADED", Tone: model.TonePositive,
			Description: "This user's winrate is not heavily affected if they " + after + " their previous match."}
	}
	if m.HasWinRate {
		t.Description += fmt.Sprintf(" (Winrate %.3f%%)", 100*m.WinRate)
	}
	return t
}

func percentileTrait(metric string, pct float64) (model.Trait, bool) {
	pct = math.Round(pct*1000) / 1000
	switch {
	case pct > highPercentile:
		return model.Trait{
			Label:       "HIGH " + metric,
			Description: fmt.Sprintf("This user has a high average %s compared to other players (Top %.3f%%)", metric, 100-pct),
			Tone:        model.TonePositive,
		}, true
	case pct < lowPercentile:
		return model.Trait{
			Label:       "LOW " + metric,
			Description: fmt.Sprintf("This user has a low average %s compared to other players (Bottom %.3f%%)", metric, pct),
			Tone:        model.ToneNegative,
		}, true
	}
	return model.Trait{}, false
}

func styleWinRateTrait(s model.Style, r StyleRecord) (model.Trait, bool) {
	rate, ok := r.WinRate()
	if !ok {
		return model.Trait{}, false
	}
	switch {
	case rate > winsAgainstAbove:
		return model.Trait{
			Label:       "WINS AGAINST " + strings.ToUpper(s.Plural()),
			Description: fmt.Sprintf("This user has a high winrate against %s. (Winrate %.3f%%)", s.Plural(), 100*rate),
			Tone:        model.TonePositive,
		}, true
	case rate < losesAgainstBelow:
		return model.Trait{
			Label:       "LOSES AGAINST " + strings.ToUpper(s.Plural()),
			Description: fmt.Sprintf("This user has a low winrate against %s. (Winrate %.3f%%)", s.Plural(), 100*rate),
			Tone:        model.ToneNegative,
		}, true
	}
	return model.Trait{}, false
}

var styleDescriptions = [...]string{
	model.StyleOpener:  "This user is likely an opener main",
	model.StylePlonker: "This user is likely a plonker",
	model.StyleStrider: "This user is likely a strider",
	model.StyleInfDS:   "This user is likely an infinite downstacker",
}

func styleTrait(s model.Style) model.Trait {
	return model.Trait{Label: s.Title(), Description: styleDescriptions[s], Tone: model.ToneNeutral}
}
