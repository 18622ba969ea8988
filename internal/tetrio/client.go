// Package tetrio is a minimal client for the TETR.IO public API.
package tetrio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pable/go-tl-verge/internal/metrics"
	"github.com/pable/go-tl-verge/internal/model"
)

// DefaultBaseURL is the root endpoint for the TETR.IO API.
const DefaultBaseURL = "https://ch.tetr.io/api/"

const (
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 8 * time.Second
)

var (
	// ErrNotFound means the API answered but has no such user or stream.
	ErrNotFound = errors.New("tetrio: not found")
	// ErrUnavailable means the API kept failing after every retry.
	ErrUnavailable = errors.New("tetrio: unavailable")
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	RateLimit  rate.Limit
	MaxRetries int
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// DefaultOptions returns conservative defaults for the public API.
func DefaultOptions() Options {
	return Options{
		BaseURL:    DefaultBaseURL,
		UserAgent:  "verge/1.0",
		Timeout:    30 * time.Second,
		RateLimit:  rate.Limit(5),
		MaxRetries: 3,
	}
}

// Client is a rate-limited TETR.IO API client.
type Client struct {
	baseURL    string
	userAgent  string
	maxRetries int
	http       *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

// NewClient returns a client configured by o. Zero fields take defaults.
func NewClient(o Options) *Client {
	def := DefaultOptions()
	if o.BaseURL == "" {
		o.BaseURL = def.BaseURL
	}
	if !strings.HasSuffix(o.BaseURL, "/") {
		o.BaseURL += "/"
	}
	if o.UserAgent == "" {
		o.UserAgent = def.UserAgent
	}
	if o.Timeout == 0 {
		o.Timeout = def.Timeout
	}
	if o.RateLimit == 0 {
		o.RateLimit = def.RateLimit
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:    o.BaseURL,
		userAgent:  o.UserAgent,
		maxRetries: o.MaxRetries,
		http:       o.HTTPClient,
		limiter:    rate.NewLimiter(o.RateLimit, 1),
		log:        o.Logger,
	}
}

// CacheInfo is the upstream cache window attached to every response.
type CacheInfo struct {
	Status      string `json:"status"`
	CachedAt    int64  `json:"cached_at"`
	CachedUntil int64  `json:"cached_until"`
}

// Until returns when the upstream will refresh the data, or the zero time
// if it did not say.
func (c CacheInfo) Until() time.Time {
	if c.CachedUntil == 0 {
		return time.Time{}
	}
	return time.UnixMilli(c.CachedUntil)
}

type envelope struct {
	Success bool            `json:"success"`
	Error   json.RawMessage `json:"error"`
	Cache   CacheInfo       `json:"cache"`
	Data    json.RawMessage `json:"data"`
}

type league struct {
	Rating     float64 `json:"rating"`
	Percentile float64 `json:"percentile"`
	Standing   int     `json:"standing"`
	PPS        float64 `json:"pps"`
	APM        float64 `json:"apm"`
	VS         float64 `json:"vs"`
}

type user struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	League   league `json:"league"`
}

func (u user) snapshot() model.PlayerSnapshot {
	return model.PlayerSnapshot{
		ID:         u.ID,
		Username:   u.Username,
		Role:       u.Role,
		PPS:        u.League.PPS,
		APM:        u.League.APM,
		VS:         u.League.VS,
		Rating:     u.League.Rating,
		Percentile: u.League.Percentile,
		Standing:   u.League.Standing,
	}
}

// get performs a rate-limited GET against the API, retrying throttled and
// server errors with exponential backoff, and decodes data into out.
func (c *Client) get(ctx context.Context, endpoint, path string, out interface{}) (CacheInfo, error) {
	backoff := initialBackoff
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return CacheInfo{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
		}
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return CacheInfo{}, fmt.Errorf("rate limiter: %w", ctx.Err())
			}
			// the next token lands after the deadline
			return CacheInfo{}, fmt.Errorf("rate limiter: %w: %v", context.DeadlineExceeded, err)
		}

		env, retry, err := c.do(ctx, path)
		if err == nil {
			metrics.ProviderRequests.WithLabelValues(endpoint, "ok").Inc()
			if !env.Success {
				return env.Cache, fmt.Errorf("GET %s: %s: %w", path, apiError(env.Error), ErrNotFound)
			}
			if err := json.Unmarshal(env.Data, out); err != nil {
				return env.Cache, fmt.Errorf("GET %s: decode data: %w", path, err)
			}
			return env.Cache, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			metrics.ProviderRequests.WithLabelValues(endpoint, "error").Inc()
			return CacheInfo{}, err
		}
		metrics.ProviderRequests.WithLabelValues(endpoint, "retry").Inc()
		c.log.Debug("retrying provider request",
			zap.String("path", path), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	metrics.ProviderRequests.WithLabelValues(endpoint, "error").Inc()
	return CacheInfo{}, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// do issues one request. retry reports whether a failure is transient.
func (c *Client) do(ctx context.Context, path string) (env envelope, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return envelope{}, false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, true, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return envelope{}, false, fmt.Errorf("GET %s: %w", path, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, resp.Body)
		return envelope{}, true, fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return envelope{}, false, fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return envelope{}, false, fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return env, false, nil
}

// apiError renders the error field, which is either a string or {msg}.
func apiError(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "unsuccessful response"
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.Msg != "" {
		return obj.Msg
	}
	return string(raw)
}

// User looks up a player's profile and league summary by username.
func (c *Client) User(ctx context.Context, username string) (model.PlayerSnapshot, time.Time, error) {
	var resp struct {
		User *user `json:"user"`
	}
	name := strings.ToLower(username)
	ci, err := c.get(ctx, "user", "users/"+url.PathEscape(name), &resp)
	if err != nil {
		return model.PlayerSnapshot{}, time.Time{}, err
	}
	if resp.User == nil {
		return model.PlayerSnapshot{}, time.Time{}, fmt.Errorf("user %s: %w", name, ErrNotFound)
	}
	return resp.User.snapshot(), ci.Until(), nil
}

// RecentMatches returns a player's recent league matches, most recent
// first, with the winner listed first in each record.
func (c *Client) RecentMatches(ctx context.Context, userID string) (model.MatchHistory, error) {
	var resp struct {
		Records []struct {
			EndContext []struct {
				Username string `json:"username"`
				User     struct {
					Username string `json:"username"`
				} `json:"user"`
			} `json:"endcontext"`
		} `json:"records"`
	}
	if _, err := c.get(ctx, "recent", "streams/league_userrecent_"+url.PathEscape(userID), &resp); err != nil {
		return nil, err
	}
	history := make(model.MatchHistory, 0, len(resp.Records))
	for _, r := range resp.Records {
		if len(r.EndContext) < 2 {
			continue
		}
		var m model.MatchRecord
		for i := 0; i < 2; i++ {
			m.Participants[i] = r.EndContext[i].Username
			if m.Participants[i] == "" {
				m.Participants[i] = r.EndContext[i].User.Username
			}
		}
		history = append(history, m)
	}
	return history, nil
}

// Leaderboard returns the full league listing ascending by standing.
func (c *Client) Leaderboard(ctx context.Context) (model.Leaderboard, time.Time, error) {
	var resp struct {
		Users []user `json:"users"`
	}
	ci, err := c.get(ctx, "leaderboard", "users/lists/league/all", &resp)
	if err != nil {
		return nil, time.Time{}, err
	}
	board := make(model.Leaderboard, len(resp.Users))
	for i, u := range resp.Users {
		board[i] = u.snapshot()
		if board[i].Standing == 0 {
			board[i].Standing = i + 1
		}
	}
	return board, ci.Until(), nil
}
