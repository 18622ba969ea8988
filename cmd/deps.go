package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/pable/go-tl-verge/internal/acquire"
	"github.com/pable/go-tl-verge/internal/config"
	"github.com/pable/go-tl-verge/internal/rediscache"
	"github.com/pable/go-tl-verge/internal/storage"
	"github.com/pable/go-tl-verge/internal/tetrio"
)

func openDB() (*storage.DB, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

func newClient() *tetrio.Client {
	return tetrio.NewClient(tetrio.Options{
		BaseURL:    cfg.APIBaseURL,
		UserAgent:  cfg.UserAgent,
		Timeout:    cfg.RequestTimeout,
		RateLimit:  rate.Limit(cfg.RequestsPerSecond),
		MaxRetries: cfg.MaxRetries,
		Logger:     logger.Named("tetrio"),
	})
}

// newFetcher wires the API client to the configured cache backend. The
// returned func releases the cache connection.
func newFetcher(ctx context.Context, db *storage.DB, refresh bool) (*acquire.Fetcher, func(), error) {
	var (
		cache   acquire.Cache
		release = func() {}
	)
	switch cfg.CacheBackend {
	case config.CacheRedis:
		rc, err := rediscache.Dial(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		cache, release = rc, func() { rc.Close() }
	case config.CacheNone:
		cache = acquire.NopCache{}
	default:
		cache = db
	}
	f := acquire.New(newClient(), cache, acquire.Options{
		Workers:     cfg.OpponentWorkers,
		FallbackTTL: cfg.CacheTTL,
		Refresh:     refresh,
		Logger:      logger.Named("acquire"),
	})
	return f, release, nil
}
