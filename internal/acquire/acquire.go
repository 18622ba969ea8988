// Package acquire gathers everything a profiling run needs from the data
// provider, with a snapshot cache in front of it.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-tl-verge/internal/metrics"
	"github.com/pable/go-tl-verge/internal/model"
	"github.com/pable/go-tl-verge/internal/profile"
	"github.com/pable/go-tl-verge/internal/tetrio"
)

// Provider is the data source. *tetrio.Client implements it.
type Provider interface {
	User(ctx context.Context, username string) (model.PlayerSnapshot, time.Time, error)
	RecentMatches(ctx context.Context, userID string) (model.MatchHistory, error)
	Leaderboard(ctx context.Context) (model.Leaderboard, time.Time, error)
}

// Cache stores snapshots until the provider's own cache window ends.
type Cache interface {
	GetLeaderboard(ctx context.Context) (model.Leaderboard, bool, error)
	PutLeaderboard(ctx context.Context, board model.Leaderboard, until time.Time) error
	GetPlayer(ctx context.Context, username string) (model.PlayerSnapshot, bool, error)
	PutPlayer(ctx context.Context, p model.PlayerSnapshot, until time.Time) error
}

// NopCache never hits and discards writes.
type NopCache struct{}

func (NopCache) GetLeaderboard(context.Context) (model.Leaderboard, bool, error) {
	return nil, false, nil
}

func (NopCache) PutLeaderboard(context.Context, model.Leaderboard, time.Time) error { return nil }

func (NopCache) GetPlayer(context.Context, string) (model.PlayerSnapshot, bool, error) {
	return model.PlayerSnapshot{}, false, nil
}

func (NopCache) PutPlayer(context.Context, model.PlayerSnapshot, time.Time) error { return nil }

// Options tunes a Fetcher.
type Options struct {
	// Workers bounds concurrent opponent lookups.
	Workers int
	// FallbackTTL is used when the provider gives no cache window.
	FallbackTTL time.Duration
	// Refresh skips cache reads; fresh results are still written back.
	Refresh bool

	Logger *zap.Logger
}

// Fetcher assembles profile.Input for a username.
type Fetcher struct {
	provider Provider
	cache    Cache
	opts     Options
	log      *zap.Logger
	now      func() time.Time
}

// New returns a Fetcher. A nil cache disables caching.
func New(p Provider, c Cache, o Options) *Fetcher {
	if c == nil {
		c = NopCache{}
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.FallbackTTL <= 0 {
		o.FallbackTTL = 5 * time.Minute
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &Fetcher{provider: p, cache: c, opts: o, log: o.Logger, now: time.Now}
}

// Gather fetches the subject, their recent matches, the leaderboard and
// every resolvable opponent. The leaderboard is fetched alongside the
// subject; opponents are resolved once the history is known. Failures
// about the subject abort the run with a profile error. Opponents that
// cannot be resolved or are banned are dropped from the result.
func (f *Fetcher) Gather(ctx context.Context, username string) (profile.Input, error) {
	start := f.now()
	var in profile.Input

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		board, err := f.leaderboard(gctx)
		if err != nil {
			return fmt.Errorf("leaderboard: %w", err)
		}
		in.Leaderboard = board
		return nil
	})
	g.Go(func() error {
		subject, err := f.player(gctx, username)
		if err != nil {
			if errors.Is(err, tetrio.ErrNotFound) {
				return fmt.Errorf("%s: %w", username, profile.ErrSubjectNotFound)
			}
			return fmt.Errorf("user %s: %w", username, err)
		}
		if subject.Banned() {
			return fmt.Errorf("%s: %w", subject.Username, profile.ErrSubjectExcluded)
		}
		history, err := f.provider.RecentMatches(gctx, subject.ID)
		if err != nil && !errors.Is(err, tetrio.ErrNotFound) {
			return fmt.Errorf("recent matches for %s: %w", subject.Username, err)
		}
		if len(history) == 0 {
			return fmt.Errorf("%s: %w", subject.Username, profile.ErrNoRankedHistory)
		}
		in.Subject, in.History = subject, history
		return nil
	})
	if err := g.Wait(); err != nil {
		return profile.Input{}, err
	}

	opponents, err := f.opponents(ctx, in.Subject.Username, in.History)
	if err != nil {
		return profile.Input{}, err
	}
	in.Opponents = opponents

	f.log.Info("fetched profile data",
		zap.String("user", in.Subject.Username),
		zap.Int("matches", len(in.History)),
		zap.Int("opponents", len(in.Opponents)),
		zap.Int("leaderboard", len(in.Leaderboard)),
		zap.Duration("took", f.now().Sub(start)))
	return in, nil
}

// opponents resolves the opponent of every match, keeping each snapshot
// paired with that match's outcome.
func (f *Fetcher) opponents(ctx context.Context, subject string, history model.MatchHistory) ([]profile.OpponentResult, error) {
	names := make([]string, len(history))
	unique := make(map[string]struct{})
	for i, m := range history {
		names[i] = strings.ToLower(m.Opponent(subject))
		unique[names[i]] = struct{}{}
	}
	delete(unique, strings.ToLower(subject))

	var (
		mu       sync.Mutex
		resolved = make(map[string]model.PlayerSnapshot, len(unique))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Workers)
	for name := range unique {
		name := name
		g.Go(func() error {
			p, err := f.player(gctx, name)
			switch {
			case err != nil && (ctx.Err() != nil || isTimeout(err)):
				// a partial opponent set is not a usable profile
				return fmt.Errorf("opponent %s: %w", name, err)
			case errors.Is(err, tetrio.ErrNotFound):
				f.skip(name, "not_found", err)
				return nil
			case err != nil:
				f.skip(name, "error", err)
				return nil
			case p.Banned():
				f.skip(name, "banned", nil)
				return nil
			}
			mu.Lock()
			resolved[name] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]profile.OpponentResult, 0, len(history))
	for i, m := range history {
		p, ok := resolved[names[i]]
		if !ok {
			continue
		}
		out = append(out, profile.OpponentResult{Opponent: p, SubjectWon: m.WonBy(subject)})
	}
	return out, nil
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func (f *Fetcher) skip(name, reason string, err error) {
	metrics.OpponentsSkipped.WithLabelValues(reason).Inc()
	fields := []zap.Field{zap.String("opponent", name), zap.String("reason", reason)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	f.log.Debug("skipping opponent", fields...)
}

func (f *Fetcher) until(upstream time.Time) time.Time {
	if upstream.IsZero() || !upstream.After(f.now()) {
		return f.now().Add(f.opts.FallbackTTL)
	}
	return upstream
}

func (f *Fetcher) player(ctx context.Context, username string) (model.PlayerSnapshot, error) {
	if !f.opts.Refresh {
		p, ok, err := f.cache.GetPlayer(ctx, username)
		f.lookup("player", ok, err)
		if ok {
			return p, nil
		}
	}
	p, upstream, err := f.provider.User(ctx, username)
	if err != nil {
		return model.PlayerSnapshot{}, err
	}
	if err := f.cache.PutPlayer(ctx, p, f.until(upstream)); err != nil {
		f.log.Warn("cache write failed", zap.String("kind", "player"), zap.Error(err))
	}
	return p, nil
}

func (f *Fetcher) leaderboard(ctx context.Context) (model.Leaderboard, error) {
	if !f.opts.Refresh {
		board, ok, err := f.cache.GetLeaderboard(ctx)
		f.lookup("leaderboard", ok, err)
		if ok {
			return board, nil
		}
	}
	board, upstream, err := f.provider.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	if err := f.cache.PutLeaderboard(ctx, board, f.until(upstream)); err != nil {
		f.log.Warn("cache write failed", zap.String("kind", "leaderboard"), zap.Error(err))
	}
	return board, nil
}

func (f *Fetcher) lookup(kind string, hit bool, err error) {
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues(kind, "error").Inc()
		f.log.Warn("cache read failed", zap.String("kind", kind), zap.Error(err))
	case hit:
		metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
	default:
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
	}
}
