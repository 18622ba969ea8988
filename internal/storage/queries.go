package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pable/go-tl-verge/internal/model"
)

// SaveReport stores a profiling run. An empty ID is assigned a new UUID
// and a zero CreatedAt is set to now; the stored report is returned.
func (db *DB) SaveReport(ctx context.Context, r model.StoredReport) (model.StoredReport, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = db.now()
	}
	traits, err := json.Marshal(r.Traits)
	if err != nil {
		return r, fmt.Errorf("encode traits: %w", err)
	}
	s := r.Subject
	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO reports(id, username, created_at, rating, standing, pps, apm, vs,
			primary_style, secondary_style, traits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, strings.ToLower(s.Username), r.CreatedAt.UnixMilli(), s.Rating, s.Standing,
		s.PPS, s.APM, s.VS, r.Primary, r.Secondary, string(traits))
	return r, err
}

const reportColumns = `id, username, created_at, rating, standing, pps, apm, vs,
	primary_style, secondary_style, traits`

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(sc scanner) (model.StoredReport, error) {
	var (
		r       model.StoredReport
		created int64
		traits  string
	)
	if err := sc.Scan(&r.ID, &r.Subject.Username, &created, &r.Subject.Rating, &r.Subject.Standing,
		&r.Subject.PPS, &r.Subject.APM, &r.Subject.VS, &r.Primary, &r.Secondary, &traits); err != nil {
		return r, err
	}
	r.CreatedAt = time.UnixMilli(created)
	if err := json.Unmarshal([]byte(traits), &r.Traits); err != nil {
		return r, fmt.Errorf("decode traits for %s: %w", r.ID, err)
	}
	return r, nil
}

// ListReports returns the stored reports for username, newest first. A
// non-positive limit returns all of them.
func (db *DB) ListReports(ctx context.Context, username string, limit int) ([]model.StoredReport, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+reportColumns+" FROM reports WHERE username = ? ORDER BY created_at DESC LIMIT ?",
		strings.ToLower(username), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StoredReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetReportByPrefix finds the newest report whose ID starts with prefix.
// It returns nil when none matches.
func (db *DB) GetReportByPrefix(ctx context.Context, prefix string) (*model.StoredReport, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+reportColumns+" FROM reports WHERE id LIKE ? ORDER BY created_at DESC LIMIT 1", prefix+"%")
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ReportedUsers returns every username with stored reports and the number
// of reports for each, most recently profiled first.
func (db *DB) ReportedUsers(ctx context.Context) ([]UserReportCount, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT username, COUNT(1), MAX(created_at) FROM reports
		GROUP BY username ORDER BY MAX(created_at) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserReportCount
	for rows.Next() {
		var (
			u    UserReportCount
			last int64
		)
		if err := rows.Scan(&u.Username, &u.Reports, &last); err != nil {
			return nil, err
		}
		u.LastReport = time.UnixMilli(last)
		out = append(out, u)
	}
	return out, rows.Err()
}

// UserReportCount is one row of ReportedUsers.
type UserReportCount struct {
	Username   string
	Reports    int
	LastReport time.Time
}
