// Package sqlite persists hotspots and memberships in SQLite, so ranked
// groupings survive between batch runs and across process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/store"
)

const schema = `
	CREATE TABLE IF NOT EXISTS hotspots (
		id                TEXT PRIMARY KEY,
		title             TEXT NOT NULL UNIQUE,
		summary           TEXT NOT NULL DEFAULT '',
		status            TEXT NOT NULL DEFAULT 'OPEN',
		rank_score        REAL NOT NULL DEFAULT 0,
		confidence        REAL NOT NULL DEFAULT 0,
		method            TEXT NOT NULL DEFAULT '',
		linked_entities   TEXT NOT NULL DEFAULT '[]',
		member_count      INTEGER NOT NULL DEFAULT 0,
		last_clustered_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS memberships (
		hotspot_id TEXT NOT NULL,
		signal_id  TEXT NOT NULL,
		strength   REAL NOT NULL,
		band       TEXT NOT NULL,
		is_outlier INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (hotspot_id, signal_id),
		FOREIGN KEY (hotspot_id) REFERENCES hotspots(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_hotspots_status ON hotspots(status);
	CREATE INDEX IF NOT EXISTS idx_hotspots_rank   ON hotspots(rank_score DESC);
`

// Store is the SQLite-backed hotspot store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the hotspot database at dsn.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite store: empty DSN")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite store: pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) UpsertHotspot(ctx context.Context, h model.Hotspot) (model.Hotspot, error) {
	entities, err := json.Marshal(orEmpty(h.LinkedEntities))
	if err != nil {
		return model.Hotspot{}, fmt.Errorf("sqlite store: encode entities: %w", err)
	}
	status := h.Status
	if status == "" {
		status = model.HotspotOpen
	}

	// Status, and on conflict the ID, are deliberately left alone: operator
	// decisions and identity survive re-clustering.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO hotspots (id, title, summary, status, rank_score, confidence, method, linked_entities, member_count, last_clustered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET
			summary = excluded.summary,
			rank_score = excluded.rank_score,
			confidence = excluded.confidence,
			method = excluded.method,
			linked_entities = excluded.linked_entities,
			member_count = excluded.member_count,
			last_clustered_at = excluded.last_clustered_at`,
		uuid.NewString(), h.Title, h.Summary, string(status), h.RankScore, h.Confidence,
		h.Method, string(entities), h.MemberCount, h.LastClusteredAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return model.Hotspot{}, fmt.Errorf("sqlite store: upsert %q: %w", h.Title, err)
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, summary, status, rank_score, confidence, method, linked_entities, member_count, last_clustered_at FROM hotspots WHERE title = ?",
		h.Title)
	return scanHotspot(row)
}

func (s *Store) ReplaceMemberships(ctx context.Context, hotspotID string, ms []model.Membership) error {
	if err := s.mustExist(ctx, hotspotID); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM memberships WHERE hotspot_id = ?", hotspotID); err != nil {
		return fmt.Errorf("sqlite store: clear memberships: %w", err)
	}
	for _, m := range ms {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO memberships (hotspot_id, signal_id, strength, band, is_outlier) VALUES (?, ?, ?, ?, ?)",
			hotspotID, m.SignalID, m.Strength, string(m.Band), boolToInt(m.IsOutlier)); err != nil {
			return fmt.Errorf("sqlite store: insert membership %s: %w", m.SignalID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) ListHotspots(ctx context.Context, f store.Filter) ([]model.Hotspot, error) {
	q := "SELECT id, title, summary, status, rank_score, confidence, method, linked_entities, member_count, last_clustered_at FROM hotspots"
	var args []any
	if f.Status != "" {
		q += " WHERE status = ?"
		args = append(args, string(f.Status))
	}
	q += " ORDER BY rank_score DESC, title"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: list hotspots: %w", err)
	}
	defer rows.Close()

	var out []model.Hotspot
	for rows.Next() {
		h, err := scanHotspot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) Memberships(ctx context.Context, hotspotID string) ([]model.Membership, error) {
	if err := s.mustExist(ctx, hotspotID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT hotspot_id, signal_id, strength, band, is_outlier FROM memberships WHERE hotspot_id = ? ORDER BY strength DESC, signal_id",
		hotspotID)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: memberships: %w", err)
	}
	defer rows.Close()

	var out []model.Membership
	for rows.Next() {
		var (
			m         model.Membership
			band      string
			isOutlier int
		)
		if err := rows.Scan(&m.HotspotID, &m.SignalID, &m.Strength, &band, &isOutlier); err != nil {
			return nil, fmt.Errorf("sqlite store: scan membership: %w", err)
		}
		m.Band = model.Band(band)
		m.IsOutlier = isOutlier != 0
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) SetStatus(ctx context.Context, id string, status model.HotspotStatus) error {
	return s.updateField(ctx, "UPDATE hotspots SET status = ? WHERE id = ?", string(status), id)
}

func (s *Store) SetRankScore(ctx context.Context, id string, score float64) error {
	return s.updateField(ctx, "UPDATE hotspots SET rank_score = ? WHERE id = ?", score, id)
}

func (s *Store) updateField(ctx context.Context, query string, value any, id string) error {
	res, err := s.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("sqlite store: update %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite store: rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) mustExist(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM hotspots WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("sqlite store: lookup %s: %w", id, err)
	}
	return nil
}

type rowLike interface {
	Scan(dest ...any) error
}

func scanHotspot(row rowLike) (model.Hotspot, error) {
	var (
		h         model.Hotspot
		status    string
		entities  string
		clustered string
	)
	err := row.Scan(&h.ID, &h.Title, &h.Summary, &status, &h.RankScore, &h.Confidence,
		&h.Method, &entities, &h.MemberCount, &clustered)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Hotspot{}, store.ErrNotFound
	}
	if err != nil {
		return model.Hotspot{}, fmt.Errorf("sqlite store: scan hotspot: %w", err)
	}
	h.Status = model.HotspotStatus(status)
	if err := json.Unmarshal([]byte(entities), &h.LinkedEntities); err != nil {
		return model.Hotspot{}, fmt.Errorf("sqlite store: decode entities for %s: %w", h.ID, err)
	}
	if h.LastClusteredAt, err = time.Parse(time.RFC3339Nano, clustered); err != nil {
		return model.Hotspot{}, fmt.Errorf("sqlite store: parse last_clustered_at for %s: %w", h.ID, err)
	}
	return h, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
