// Package rediscache is a Redis-backed snapshot cache. Entries expire on
// the upstream's own cache window through Redis TTLs.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"

	"github.com/pable/go-tl-verge/internal/model"
)

const (
	keyPrefix      = "verge:"
	leaderboardKey = keyPrefix + "leaderboard"
	playerKey      = keyPrefix + "player:"
)

// Client is the subset of *redis.Client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Cache stores snapshots in Redis.
type Cache struct {
	rdb Client
	now func() time.Time
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Dial connects to the Redis instance at url (redis://host:port/db) and
// checks it answers.
func Dial(ctx context.Context, url string) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(rdb), nil
}

// New wraps an existing client.
func New(rdb Client) *Cache {
	enc, _ := zstd.NewWriter(nil)
	dec, _ := zstd.NewReader(nil)
	return &Cache{rdb: rdb, now: time.Now, enc: enc, dec: dec}
}

// Close releases the underlying connection if it owns one.
func (c *Cache) Close() error {
	c.dec.Close()
	if cl, ok := c.rdb.(interface{ Close() error }); ok {
		return cl.Close()
	}
	return nil
}

func (c *Cache) ttl(until time.Time) time.Duration {
	return until.Sub(c.now())
}

// GetLeaderboard returns the cached leaderboard, if any.
func (c *Cache) GetLeaderboard(ctx context.Context) (model.Leaderboard, bool, error) {
	raw, err := c.rdb.Get(ctx, leaderboardKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	plain, err := c.dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, false, fmt.Errorf("zstd: %w", err)
	}
	var board model.Leaderboard
	if err := json.Unmarshal(plain, &board); err != nil {
		return nil, false, fmt.Errorf("decode leaderboard: %w", err)
	}
	return board, true, nil
}

// PutLeaderboard stores board until until. Already-expired windows are
// not stored.
func (c *Cache) PutLeaderboard(ctx context.Context, board model.Leaderboard, until time.Time) error {
	ttl := c.ttl(until)
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(board)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, leaderboardKey, c.enc.EncodeAll(raw, nil), ttl).Err()
}

// GetPlayer returns the cached snapshot for username, if any.
func (c *Cache) GetPlayer(ctx context.Context, username string) (model.PlayerSnapshot, bool, error) {
	raw, err := c.rdb.Get(ctx, playerKey+strings.ToLower(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.PlayerSnapshot{}, false, nil
	}
	if err != nil {
		return model.PlayerSnapshot{}, false, err
	}
	var p model.PlayerSnapshot
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.PlayerSnapshot{}, false, fmt.Errorf("decode player: %w", err)
	}
	return p, true, nil
}

// PutPlayer stores p until until.
func (c *Cache) PutPlayer(ctx context.Context, p model.PlayerSnapshot, until time.Time) error {
	ttl := c.ttl(until)
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, playerKey+strings.ToLower(p.Username), raw, ttl).Err()
}

// DropLeaderboard removes the cached leaderboard.
func (c *Cache) DropLeaderboard(ctx context.Context) error {
	return c.rdb.Del(ctx, leaderboardKey).Err()
}
