package model

import "testing"

func TestMatchRecordSides(t *testing.T) {
	m := MatchRecord{Participants: [2]string{"Alice", "bob"}}

	tests := []struct {
		user     string
		won      bool
		opponent string
	}{
		{"alice", true, "bob"},
		{"ALICE", true, "bob"},
		{"bob", false, "Alice"},
	}
	if m.Winner() != "Alice" {
		t.Errorf("Winner = %q, want Alice", m.Winner())
	}
	for _, tt := range tests {
		if got := m.WonBy(tt.user); got != tt.won {
			t.Errorf("WonBy(%q) = %v, want %v", tt.user, got, tt.won)
		}
		if got := m.Opponent(tt.user); got != tt.opponent {
			t.Errorf("Opponent(%q) = %q, want %q", tt.user, got, tt.opponent)
		}
	}
}
