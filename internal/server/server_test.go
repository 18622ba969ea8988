package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/pable/go-tl-verge/internal/model"
	"github.com/pable/go-tl-verge/internal/profile"
)

type fakeGatherer struct {
	in  profile.Input
	err error
}

func (f fakeGatherer) Gather(_ context.Context, username string) (profile.Input, error) {
	if f.err != nil {
		return profile.Input{}, f.err
	}
	in := f.in
	in.Subject.Username = username
	return in, nil
}

func validInput() profile.Input {
	return profile.Input{
		Subject: model.PlayerSnapshot{ID: "id", PPS: 2.5, APM: 150, VS: 300, Standing: 1, Percentile: 0.01},
		History: model.MatchHistory{
			{Participants: [2]string{"alice", "bob"}},
			{Participants: [2]string{"bob", "alice"}},
		},
	}
}

func TestRoutes(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		gatherer   fakeGatherer
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `"ok"`,
		},
		{
			name:       "profile ok",
			path:       "/profile/alice",
			gatherer:   fakeGatherer{in: validInput()},
			wantStatus: http.StatusOK,
			wantBody:   `"traits"`,
		},
		{
			name:       "unknown user",
			path:       "/profile/ghost",
			gatherer:   fakeGatherer{err: fmt.Errorf("lookup ghost: %w", profile.ErrSubjectNotFound)},
			wantStatus: http.StatusNotFound,
			wantBody:   `"error"`,
		},
		{
			name:       "banned user",
			path:       "/profile/cheater",
			gatherer:   fakeGatherer{err: profile.ErrSubjectExcluded},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "no history",
			path:       "/profile/fresh",
			gatherer:   fakeGatherer{err: profile.ErrNoRankedHistory},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "provider down",
			path:       "/profile/alice",
			gatherer:   fakeGatherer{err: fmt.Errorf("tetrio: unavailable")},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "metrics",
			path:       "/metrics",
			wantStatus: http.StatusOK,
			wantBody:   "verge_http_requests_total",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New(Config{AllowedOrigins: []string{"*"}}, tc.gatherer, zap.NewNop())
			// Prime the request counter so /metrics has a sample to show.
			s.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if tc.wantBody != "" && !strings.Contains(rec.Body.String(), tc.wantBody) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestProfileDocument(t *testing.T) {
	s := New(Config{}, fakeGatherer{in: validInput()}, zap.NewNop())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile/alice", nil))

	var doc struct {
		Username string        `json:"username"`
		Traits   []model.Trait `json:"traits"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Username != "alice" {
		t.Errorf("username = %q, want alice", doc.Username)
	}
	if len(doc.Traits) == 0 {
		t.Fatal("expected at least one trait")
	}
	if got := doc.Traits[len(doc.Traits)-1].Label; got != "PLONKER" {
		t.Errorf("last trait = %q, want PLONKER", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		outcome string
	}{
		{profile.ErrSubjectNotFound, http.StatusNotFound, "not_found"},
		{profile.ErrSubjectExcluded, http.StatusUnprocessableEntity, "excluded"},
		{profile.ErrNoRankedHistory, http.StatusUnprocessableEntity, "no_history"},
		{profile.ErrDivisionByZero, http.StatusUnprocessableEntity, "bad_metrics"},
		{context.DeadlineExceeded, http.StatusBadGateway, "error"},
	}
	for _, tc := range tests {
		status, outcome := classify(tc.err)
		if status != tc.status || outcome != tc.outcome {
			t.Errorf("classify(%v) = %d %s, want %d %s", tc.err, status, outcome, tc.status, tc.outcome)
		}
	}
}
