package profile

import (
	"fmt"
	"math"

	"github.com/pable/go-tl-verge/internal/model"
)

// secondaryRatio is how close to the primary score a runner-up must be to
// count as a secondary style.
const secondaryRatio = 0.75

// Scores holds one composite score per style, indexed by model.Style.
type Scores [4]float64

// Score computes the four archetype scores from deviations, each rounded
// to four decimals.
func Score(d Deviations) Scores {
	return Scores{
		model.StyleOpener:  round4((d.APM+0.75*d.PPS-10*d.VSAPM+0.75*d.APP-0.25*d.DSPP)/3.5 + 0.5),
		model.StylePlonker: round4((d.GE+d.APP+0.75*d.DSPP-d.PPS)/2.73 + 0.5),
		model.StyleStrider: round4((-0.25*d.APM+d.PPS-2*d.APP-0.5*d.DSPP)*0.79 + 0.5),
		model.StyleInfDS:   round4((d.DSPP-0.75*d.APP+0.5*d.APM+1.5*d.VSAPM+0.5*d.PPS)*0.9 + 0.5),
	}
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

// Secondary is an optional style.
type Secondary struct {
	style   model.Style
	present bool
}

// SomeStyle wraps s as a present secondary style.
func SomeStyle(s model.Style) Secondary { return Secondary{style: s, present: true} }

// NoStyle is the absent secondary style.
func NoStyle() Secondary { return Secondary{} }

// Get returns the style and whether one is present.
func (s Secondary) Get() (model.Style, bool) { return s.style, s.present }

// Classification is a player's primary and optional secondary style.
type Classification struct {
	Primary   model.Style
	Secondary Secondary
}

// Styles returns the primary followed by the secondary if present.
func (c Classification) Styles() []model.Style {
	out := []model.Style{c.Primary}
	if s, ok := c.Secondary.Get(); ok {
		out = append(out, s)
	}
	return out
}

// Classify picks the highest score as primary, lowest index winning ties.
// The best of the remaining three is the secondary only when it exceeds
// three quarters of the primary score.
func Classify(s Scores) Classification {
	primary := argmax(s, -1)
	c := Classification{Primary: model.Style(primary)}
	runnerUp := argmax(s, primary)
	if s[runnerUp] > secondaryRatio*s[primary] {
		c.Secondary = SomeStyle(model.Style(runnerUp))
	}
	return c
}

// argmax returns the index of the largest score, skipping index skip.
func argmax(s Scores, skip int) int {
	best := -1
	for i, v := range s {
		if i == skip {
			continue
		}
		if best < 0 || v > s[best] {
			best = i
		}
	}
	return best
}

// Playstyle is the full classification pipeline output for one player.
type Playstyle struct {
	Metrics        Derived
	Deviations     Deviations
	Scores         Scores
	Classification Classification
}

// Analyze runs derivation, deviation, scoring and classification for p.
func Analyze(p model.PlayerSnapshot) (Playstyle, error) {
	d, err := Derive(p)
	if err != nil {
		return Playstyle{}, err
	}
	dev, err := Deviate(d)
	if err != nil {
		return Playstyle{}, fmt.Errorf("%s: %w", p.Username, err)
	}
	sc := Score(dev)
	return Playstyle{Metrics: d, Deviations: dev, Scores: sc, Classification: Classify(sc)}, nil
}
