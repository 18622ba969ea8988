package model

import (
	"strings"
	"time"
)

// RoleBanned is the account role the provider reports for banned players.
const RoleBanned = "banned"

// PlayerSnapshot is one player's TETRA LEAGUE rating metrics at query time.
type PlayerSnapshot struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Role       string  `json:"role"`
	PPS        float64 `json:"pps"`
	APM        float64 `json:"apm"`
	VS         float64 `json:"vs"`
	Rating     float64 `json:"rating"`
	Percentile float64 `json:"percentile"` // 0..1
	Standing   int     `json:"standing"`   // 1-based global rank
}

// Banned reports whether the account is excluded from ranked analysis.
func (p PlayerSnapshot) Banned() bool {
	return strings.EqualFold(p.Role, RoleBanned)
}

// MatchRecord is one finished league match. Participants[0] is the winner.
type MatchRecord struct {
	Participants [2]string `json:"participants"`
}

// Winner returns the username of the winning side.
func (m MatchRecord) Winner() string { return m.Participants[0] }

// WonBy reports whether username won the match. Usernames compare
// case-insensitively.
func (m MatchRecord) WonBy(username string) bool {
	return strings.EqualFold(m.Winner(), username)
}

// Opponent returns the participant that is not username.
func (m MatchRecord) Opponent(username string) string {
	if m.WonBy(username) {
		return m.Participants[1]
	}
	return m.Winner()
}

// MatchHistory is a player's recent league matches, most recent first.
// Producers must preserve that order; momentum classification reads
// History[0] as the latest match.
type MatchHistory []MatchRecord

// Outcomes returns the win/loss sequence for username in history order.
func (h MatchHistory) Outcomes(username string) []bool {
	out := make([]bool, len(h))
	for i, m := range h {
		out[i] = m.WonBy(username)
	}
	return out
}

// Leaderboard is the full league listing, ascending by standing.
type Leaderboard []PlayerSnapshot

// Style is one of the four playstyle archetypes.
type Style int

const (
	StyleOpener Style = iota
	StylePlonker
	StyleStrider
	StyleInfDS
)

// Styles lists every style in report order.
var Styles = [...]Style{StyleOpener, StylePlonker, StyleStrider, StyleInfDS}

func (s Style) String() string {
	switch s {
	case StyleOpener:
		return "opener"
	case StylePlonker:
		return "plonker"
	case StyleStrider:
		return "strider"
	case StyleInfDS:
		return "infds"
	default:
		return "?"
	}
}

// MarshalText encodes the style by name.
func (s Style) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Title is the upper-case label used for a style finding.
func (s Style) Title() string {
	switch s {
	case StyleOpener:
		return "OPENER"
	case StylePlonker:
		return "PLONKER"
	case StyleStrider:
		return "STRIDER"
	case StyleInfDS:
		return "INF DS'ER"
	default:
		return "?"
	}
}

// Plural is the lower-case group name used in win-rate findings.
func (s Style) Plural() string {
	switch s {
	case StyleOpener:
		return "openers"
	case StylePlonker:
		return "plonkers"
	case StyleStrider:
		return "striders"
	case StyleInfDS:
		return "inf ds'ers"
	default:
		return "?"
	}
}

// Tone marks whether a finding reads as a strength or a weakness.
type Tone string

const (
	ToneNeutral  Tone = "neutral"
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
)

// Trait is a single finding about a player.
type Trait struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Tone        Tone   `json:"tone"`
}

// StoredReport is a saved profiling run. Secondary is empty when the
// player had no secondary style.
type StoredReport struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Subject   PlayerSnapshot `json:"subject"`
	Primary   string         `json:"primary"`
	Secondary string         `json:"secondary,omitempty"`
	Traits    []Trait        `json:"traits"`
}
