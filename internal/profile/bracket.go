package profile

import (
	"math"
	"sort"

	"github.com/pable/go-tl-verge/internal/model"
)

// bracketFloor is the minimum half-width of a skill bracket.
const bracketFloor = 10

// BracketRange returns the half-width of the peer window for a player at
// percentile p on a leaderboard of n entries. The window is widest at
// p=0.5 and shrinks to the floor at either end of the ladder.
func BracketRange(p float64, n int) int {
	p = math.Max(0, math.Min(1, p))
	return int(math.Floor(-0.4055*(p*p-p)*float64(n) + bracketFloor + 0.5))
}

// Bracket is the window [Upper, Lower) of leaderboard peers around a
// player, with each metric column sorted ascending.
type Bracket struct {
	Upper, Lower int

	PPS    []float64
	APM    []float64
	VS     []float64
	Rating []float64
}

// Size is the number of peers in the bracket.
func (b Bracket) Size() int { return b.Lower - b.Upper }

// NewBracket selects the peers around subject from board, which must be
// ascending by standing. The bounds always satisfy
// 0 <= Upper <= Lower <= len(board).
func NewBracket(subject model.PlayerSnapshot, board model.Leaderboard) Bracket {
	n := len(board)
	rng := BracketRange(subject.Percentile, n)
	lower := min(subject.Standing-1+rng, n)
	upper := max(subject.Standing-1-rng, 0)
	lower = max(lower, 0)
	upper = min(upper, lower)

	b := Bracket{Upper: upper, Lower: lower}
	size := lower - upper
	b.PPS = make([]float64, 0, size)
	b.APM = make([]float64, 0, size)
	b.VS = make([]float64, 0, size)
	b.Rating = make([]float64, 0, size)
	for _, p := range board[upper:lower] {
		b.PPS = append(b.PPS, p.PPS)
		b.APM = append(b.APM, p.APM)
		b.VS = append(b.VS, p.VS)
		b.Rating = append(b.Rating, p.Rating)
	}
	sort.Float64s(b.PPS)
	sort.Float64s(b.APM)
	sort.Float64s(b.VS)
	sort.Float64s(b.Rating)
	return b
}
