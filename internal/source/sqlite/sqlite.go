// Package sqlite reads signals from a SQLite backlog. The schema is created
// on open, so pointing at a fresh file just works.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/source"
)

func init() {
	source.Register("sqlite", func(cfg source.Config) (source.Source, error) {
		return Open(cfg.DSN)
	})
}

const schema = `
	CREATE TABLE IF NOT EXISTS signals (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		severity     INTEGER NOT NULL DEFAULT 2,
		department   TEXT NOT NULL DEFAULT '',
		team         TEXT NOT NULL DEFAULT '',
		category     TEXT NOT NULL DEFAULT '',
		tags         TEXT NOT NULL DEFAULT '{}',
		metrics      TEXT NOT NULL DEFAULT '{}',
		created_at   TEXT NOT NULL,
		processed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_signals_processed ON signals(processed_at);
	CREATE INDEX IF NOT EXISTS idx_signals_created   ON signals(created_at);
`

// Source reads and marks signals in a SQLite database.
type Source struct {
	db *sql.DB
}

// Open opens (or creates) the backlog database at dsn.
func Open(dsn string) (*Source, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite source: empty DSN")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite source: open: %w", err)
	}
	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite source: pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite source: migrate: %w", err)
	}
	return &Source{db: db}, nil
}

func (s *Source) Close() error { return s.db.Close() }

// Insert ingests a signal, overwriting any earlier row with the same ID and
// clearing its processed mark.
func (s *Source) Insert(ctx context.Context, sig model.Signal) error {
	tags, err := json.Marshal(orEmptyTags(sig.Tags))
	if err != nil {
		return fmt.Errorf("sqlite source: encode tags: %w", err)
	}
	metrics, err := json.Marshal(orEmptyMetrics(sig.Metrics))
	if err != nil {
		return fmt.Errorf("sqlite source: encode metrics: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO signals (id, title, description, severity, department, team, category, tags, metrics, created_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			severity = excluded.severity,
			department = excluded.department,
			team = excluded.team,
			category = excluded.category,
			tags = excluded.tags,
			metrics = excluded.metrics,
			created_at = excluded.created_at,
			processed_at = NULL`,
		sig.ID, sig.Title, sig.Description, int(sig.Severity), sig.Department, sig.Team,
		sig.Category, string(tags), string(metrics), sig.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite source: insert %s: %w", sig.ID, err)
	}
	return nil
}

func (s *Source) Signals(ctx context.Context, f source.Filter) ([]model.Signal, error) {
	var (
		where []string
		args  []any
	)
	if len(f.IDs) > 0 {
		// An explicit ID list bypasses the processed check.
		ph := make([]string, len(f.IDs))
		for i, id := range f.IDs {
			ph[i] = "?"
			args = append(args, id)
		}
		where = append(where, "id IN ("+strings.Join(ph, ", ")+")")
	} else if !f.IncludeProcessed {
		where = append(where, "processed_at IS NULL")
	}
	if f.Department != "" {
		where = append(where, "department = ?")
		args = append(args, f.Department)
	}
	if f.Team != "" {
		where = append(where, "team = ?")
		args = append(args, f.Team)
	}
	if f.MinSeverity > 0 {
		where = append(where, "severity >= ?")
		args = append(args, int(f.MinSeverity))
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}

	q := "SELECT id, title, description, severity, department, team, category, tags, metrics, created_at FROM signals"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite source: query signals: %w", err)
	}
	defer rows.Close()

	var out []model.Signal
	for rows.Next() {
		var (
			sig           model.Signal
			severity      int
			tags, metrics string
			createdAt     string
		)
		if err := rows.Scan(&sig.ID, &sig.Title, &sig.Description, &severity, &sig.Department,
			&sig.Team, &sig.Category, &tags, &metrics, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite source: scan signal: %w", err)
		}
		sig.Severity = model.Severity(severity)
		if err := json.Unmarshal([]byte(tags), &sig.Tags); err != nil {
			return nil, fmt.Errorf("sqlite source: decode tags for %s: %w", sig.ID, err)
		}
		if err := json.Unmarshal([]byte(metrics), &sig.Metrics); err != nil {
			return nil, fmt.Errorf("sqlite source: decode metrics for %s: %w", sig.ID, err)
		}
		if sig.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("sqlite source: parse created_at for %s: %w", sig.ID, err)
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (s *Source) MarkProcessed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite source: begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, "UPDATE signals SET processed_at = ? WHERE id = ?", now, id); err != nil {
			return fmt.Errorf("sqlite source: mark %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func orEmptyTags(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func orEmptyMetrics(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
