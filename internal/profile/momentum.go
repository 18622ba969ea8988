package profile

// Mood is the momentum label derived from a match sequence.
type Mood int

const (
	MoodLevelHeaded Mood = iota
	MoodGood
	MoodBad
	MoodOverConfident
	MoodVengeance
)

func (m Mood) String() string {
	switch m {
	case MoodGood:
		return "good_mood"
	case MoodBad:
		return "bad_mood"
	case MoodOverConfident:
		return "over_confident"
	case MoodVengeance:
		return "vengeance"
	default:
		return "level_headed"
	}
}

// MarshalText encodes the mood by name.
func (m Mood) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// moodThreshold is the share of transitions a mood must exceed.
const moodThreshold = 0.75

// Transitions counts adjacent match pairs by (current, previous) outcome.
type Transitions struct {
	Good          int `json:"good_mood"`      // win after win
	Bad           int `json:"bad_mood"`       // loss after loss
	OverConfident int `json:"over_confident"` // loss after win
	Vengeance     int `json:"vengeance"`      // win after loss
}

// CountTransitions walks outcomes (most recent first) pairwise.
func CountTransitions(outcomes []bool) Transitions {
	var t Transitions
	for i := 0; i+1 < len(outcomes); i++ {
		cur, prev := outcomes[i], outcomes[i+1]
		switch {
		case cur && prev:
			t.Good++
		case !cur && !prev:
			t.Bad++
		case !cur && prev:
			t.OverConfident++
		default:
			t.Vengeance++
		}
	}
	return t
}

// GoodMoodScore is the share of matches won after a win. ok is false when
// no match followed a win.
func (t Transitions) GoodMoodScore() (score float64, ok bool) {
	den := t.Good + t.OverConfident
	if den == 0 {
		return 0, false
	}
	return float64(t.Good) / float64(den), true
}

// BadMoodScore is the share of matches lost after a loss.
func (t Transitions) BadMoodScore() (score float64, ok bool) {
	den := t.Bad + t.Vengeance
	if den == 0 {
		return 0, false
	}
	return float64(t.Bad) / float64(den), true
}

// Momentum is the classified mood plus the win rate that supports it.
type Momentum struct {
	Mood        Mood        `json:"mood"`
	LastWon     bool        `json:"last_won"`
	Transitions Transitions `json:"transitions"`
	// WinRate is the share of matches won right after a match with the
	// same outcome as the latest one. Valid only when HasWinRate is set.
	WinRate    float64 `json:"win_rate"`
	HasWinRate bool    `json:"has_win_rate"`
}

// ClassifyMomentum labels a most-recent-first outcome sequence. ok is false
// when fewer than two matches are available.
func ClassifyMomentum(outcomes []bool) (m Momentum, ok bool) {
	if len(outcomes) < 2 {
		return Momentum{}, false
	}
	m.Transitions = CountTransitions(outcomes)
	m.LastWon = outcomes[0]
	m.Mood = MoodLevelHeaded

	if m.LastWon {
		good, ok := m.Transitions.GoodMoodScore()
		if !ok {
			return m, true
		}
		switch {
		case good > moodThreshold:
			m.Mood = MoodGood
		case 1-good > moodThreshold:
			m.Mood = MoodOverConfident
		}
		m.WinRate, m.HasWinRate = good, true
		return m, true
	}

	bad, ok := m.Transitions.BadMoodScore()
	if !ok {
		return m, true
	}
	switch {
	case bad > moodThreshold:
		m.Mood = MoodBad
	case 1-bad > moodThreshold:
		m.Mood = MoodVengeance
	}
	m.WinRate, m.HasWinRate = 1-bad, true
	return m, true
}
