package tetrio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL, RateLimit: rate.Inf, MaxRetries: 1})
}

func TestUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/osk" {
			t.Errorf("path = %q, want /users/osk", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("missing User-Agent")
		}
		w.Write([]byte(`{"success":true,"cache":{"status":"hit","cached_at":1700000000000,"cached_until":1700000060000},
			"data":{"user":{"_id":"5e32","username":"osk","role":"admin",
			"league":{"rating":24000.5,"percentile":0.01,"standing":12,"pps":2.9,"apm":170.2,"vs":340.1}}}}`))
	})

	p, until, err := c.User(context.Background(), "OSK")
	if err != nil {
		t.Fatalf("User: %v", err)
	}
	if p.ID != "5e32" || p.Username != "osk" || p.Role != "admin" {
		t.Errorf("identity = %+v", p)
	}
	if p.PPS != 2.9 || p.APM != 170.2 || p.VS != 340.1 || p.Standing != 12 || p.Percentile != 0.01 {
		t.Errorf("league = %+v", p)
	}
	if want := time.UnixMilli(1700000060000); !until.Equal(want) {
		t.Errorf("until = %v, want %v", until, want)
	}
}

func TestUserNotFound(t *testing.T) {
	tests := []struct {
		name string
		h    http.HandlerFunc
	}{
		{"unsuccessful", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"error":"No such user! | Either you mistyped something, or the account no longer exists."}`))
		}},
		{"structured error", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"error":{"msg":"No such user!"}}`))
		}},
		{"http 404", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"null user", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true,"data":{"user":null}}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.h)
			_, _, err := c.User(context.Background(), "ghost")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestRecentMatches(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/streams/league_userrecent_abc" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"data":{"records":[
			{"endcontext":[{"username":"me"},{"username":"you"}]},
			{"endcontext":[{"user":{"username":"them"}},{"user":{"username":"me"}}]},
			{"endcontext":[{"username":"solo"}]}
		]}}`))
	})

	h, err := c.RecentMatches(context.Background(), "abc")
	if err != nil {
		t.Fatalf("RecentMatches: %v", err)
	}
	if len(h) != 2 {
		t.Fatalf("len = %d, want 2 (malformed record dropped)", len(h))
	}
	if !h[0].WonBy("me") || h[0].Opponent("me") != "you" {
		t.Errorf("record 0 = %+v", h[0])
	}
	if h[1].WonBy("me") || h[1].Opponent("me") != "them" {
		t.Errorf("record 1 = %+v", h[1])
	}
}

func TestLeaderboard(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"users":[
			{"_id":"a","username":"first","league":{"rating":25000,"pps":3,"apm":200,"vs":400,"standing":1}},
			{"_id":"b","username":"second","league":{"rating":24900,"pps":2.8,"apm":190,"vs":380}}
		]}}`))
	})

	board, _, err := c.Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("len = %d, want 2", len(board))
	}
	if board[1].Standing != 2 {
		t.Errorf("missing standing should fall back to position, got %d", board[1].Standing)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"success":true,"data":{"users":[]}}`))
	})

	if _, _, err := c.Leaderboard(context.Background()); err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestUnavailableAfterRetries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, _, err := c.Leaderboard(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestRateLimitPastDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"users":[]}}`))
	}))
	t.Cleanup(srv.Close)
	c := NewClient(Options{BaseURL: srv.URL, RateLimit: rate.Limit(0.5), MaxRetries: 0})

	if _, _, err := c.Leaderboard(context.Background()); err != nil {
		t.Fatalf("first Leaderboard: %v", err)
	}

	// The next token is two seconds away, well past the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, _, err := c.Leaderboard(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
	if ctx.Err() != nil {
		t.Error("expected the limiter to fail before the deadline passed")
	}
}
