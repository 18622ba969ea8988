package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-tl-verge/internal/model"
)

// The full leaderboard runs to tens of thousands of rows, so it is stored
// zstd-compressed.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// GetLeaderboard returns the cached leaderboard if it has not expired.
func (db *DB) GetLeaderboard(ctx context.Context) (model.Leaderboard, bool, error) {
	var payload []byte
	err := db.conn.QueryRowContext(ctx,
		"SELECT payload FROM leaderboard_cache WHERE id = 1 AND cached_until > ?",
		db.now().UnixMilli()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	raw, err := decoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, false, fmt.Errorf("zstd: %w", err)
	}
	var board model.Leaderboard
	if err := json.Unmarshal(raw, &board); err != nil {
		return nil, false, fmt.Errorf("decode leaderboard: %w", err)
	}
	return board, true, nil
}

// PutLeaderboard replaces the cached leaderboard. It stays valid until until.
func (db *DB) PutLeaderboard(ctx context.Context, board model.Leaderboard, until time.Time) error {
	raw, err := json.Marshal(board)
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO leaderboard_cache(id, fetched_at, cached_until, entries, payload)
		VALUES (1, ?, ?, ?, ?)`,
		db.now().UnixMilli(), until.UnixMilli(), len(board), encoder.EncodeAll(raw, nil))
	return err
}

// GetPlayer returns a cached snapshot for username if it has not expired.
func (db *DB) GetPlayer(ctx context.Context, username string) (model.PlayerSnapshot, bool, error) {
	var payload string
	err := db.conn.QueryRowContext(ctx,
		"SELECT payload FROM player_cache WHERE username = ? AND cached_until > ?",
		strings.ToLower(username), db.now().UnixMilli()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PlayerSnapshot{}, false, nil
	}
	if err != nil {
		return model.PlayerSnapshot{}, false, err
	}
	var p model.PlayerSnapshot
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return model.PlayerSnapshot{}, false, fmt.Errorf("decode player: %w", err)
	}
	return p, true, nil
}

// PutPlayer caches a snapshot keyed by lower-cased username.
func (db *DB) PutPlayer(ctx context.Context, p model.PlayerSnapshot, until time.Time) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO player_cache(username, fetched_at, cached_until, payload)
		VALUES (?, ?, ?, ?)`,
		strings.ToLower(p.Username), db.now().UnixMilli(), until.UnixMilli(), string(raw))
	return err
}

// CacheStats summarises the snapshot cache.
type CacheStats struct {
	LeaderboardEntries int
	LeaderboardUntil   time.Time
	Players            int
	ExpiredPlayers     int
}

// Stats reports what the cache currently holds.
func (db *DB) Stats(ctx context.Context) (CacheStats, error) {
	var s CacheStats
	var until sql.NullInt64
	err := db.conn.QueryRowContext(ctx,
		"SELECT entries, cached_until FROM leaderboard_cache WHERE id = 1").Scan(&s.LeaderboardEntries, &until)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return s, err
	}
	if until.Valid {
		s.LeaderboardUntil = time.UnixMilli(until.Int64)
	}
	err = db.conn.QueryRowContext(ctx, `
		SELECT COUNT(1), COALESCE(SUM(CASE WHEN cached_until <= ? THEN 1 ELSE 0 END), 0)
		FROM player_cache`, db.now().UnixMilli()).Scan(&s.Players, &s.ExpiredPlayers)
	return s, err
}

// PurgeExpired deletes cache rows whose window has passed and returns how
// many were removed.
func (db *DB) PurgeExpired(ctx context.Context) (int64, error) {
	now := db.now().UnixMilli()
	var total int64
	for _, q := range []string{
		"DELETE FROM leaderboard_cache WHERE cached_until <= ?",
		"DELETE FROM player_cache WHERE cached_until <= ?",
	} {
		res, err := db.conn.ExecContext(ctx, q, now)
		if err != nil {
			return total, err
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// DropCache empties the snapshot cache. Report history is kept.
func (db *DB) DropCache(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM leaderboard_cache; DELETE FROM player_cache;")
	return err
}
