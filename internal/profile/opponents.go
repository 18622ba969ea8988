package profile

import "github.com/pable/go-tl-verge/internal/model"

// Win-rate bounds for style findings.
const (
	winsAgainstAbove  = 0.65
	losesAgainstBelow = 0.35
)

// OpponentResult pairs an opponent's snapshot with the outcome of the match
// the subject played against them.
type OpponentResult struct {
	Opponent   model.PlayerSnapshot
	SubjectWon bool
}

// StyleRecord is the subject's record against one style.
type StyleRecord struct {
	Wins   int `json:"wins"`
	Played int `json:"played"`
}

// WinRate returns wins/played. ok is false for an empty bucket.
func (r StyleRecord) WinRate() (rate float64, ok bool) {
	if r.Played == 0 {
		return 0, false
	}
	return float64(r.Wins) / float64(r.Played), true
}

// StyleTally is the per-style record accumulated over opponents.
type StyleTally struct {
	Buckets [4]StyleRecord `json:"buckets"`
	// Skipped counts opponents whose metrics could not be classified.
	Skipped int `json:"skipped"`
}

// Record returns the bucket for s.
func (t StyleTally) Record(s model.Style) StyleRecord { return t.Buckets[s] }

// TallyOpponent folds one opponent into t and returns the new tally. The
// opponent's primary style, and secondary if present, each gain a played
// match, and a win when the subject won.
func TallyOpponent(t StyleTally, r OpponentResult) StyleTally {
	ps, err := Analyze(r.Opponent)
	if err != nil {
		t.Skipped++
		return t
	}
	for _, s := range ps.Classification.Styles() {
		t.Buckets[s].Played++
		if r.SubjectWon {
			t.Buckets[s].Wins++
		}
	}
	return t
}

// FoldOpponents applies TallyOpponent left to right over results.
func FoldOpponents(results []OpponentResult) StyleTally {
	var t StyleTally
	for _, r := range results {
		t = TallyOpponent(t, r)
	}
	return t
}
