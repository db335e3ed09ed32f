// Package ledger keeps the history of published scenes in a SQLite database.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/qcc-tools/qcc/internal/version"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// now is swapped in tests.
var now = time.Now

const schema = `
CREATE TABLE IF NOT EXISTS publishes (
	id             TEXT PRIMARY KEY,
	department     TEXT NOT NULL,
	source_path    TEXT NOT NULL,
	published_path TEXT NOT NULL,
	version        TEXT NOT NULL,
	published_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_publishes_published_at ON publishes(published_at);
`

// Record is one published scene.
type Record struct {
	ID            string
	Department    string
	SourcePath    string
	PublishedPath string
	Version       string
	PublishedAt   time.Time
}

// Ledger is an open publish history.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating when needed) the ledger database at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ledger: create dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ledger: pragma %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: migrate: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record appends a publish. Empty ID and zero PublishedAt are filled in.
func (l *Ledger) Record(ctx context.Context, r Record) (Record, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.PublishedAt.IsZero() {
		r.PublishedAt = now()
	}
	r.PublishedAt = r.PublishedAt.UTC().Truncate(time.Second)

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO publishes (id, department, source_path, published_path, version, published_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Department, r.SourcePath, r.PublishedPath, r.Version, r.PublishedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Record{}, fmt.Errorf("ledger: record %s: %w", r.PublishedPath, err)
	}
	return r, nil
}

// List returns the most recent publishes first. A limit <= 0 returns all.
func (l *Ledger) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, department, source_path, published_path, version, published_at
		 FROM publishes ORDER BY published_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	return out, nil
}

// Latest returns the newest publish of the asset sourcePath belongs to,
// whichever version it was published from; ok is false when there is none.
func (l *Ledger) Latest(ctx context.Context, sourcePath string) (Record, bool, error) {
	asset, err := version.AssetOf(sourcePath)
	if err != nil {
		return Record{}, false, err
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT id, department, source_path, published_path, version, published_at
		 FROM publishes WHERE substr(source_path, 1, length(?)) = ?
		 ORDER BY published_at DESC, rowid DESC`, asset.Prefix, asset.Prefix)
	if err != nil {
		return Record{}, false, fmt.Errorf("ledger: latest: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return Record{}, false, err
		}
		// the prefix also matches longer asset names sharing it
		if other, err := version.AssetOf(r.SourcePath); err == nil && other.Key == asset.Key {
			return r, true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return Record{}, false, fmt.Errorf("ledger: latest: %w", err)
	}
	return Record{}, false, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (Record, error) {
	var (
		r  Record
		at string
	)
	if err := s.Scan(&r.ID, &r.Department, &r.SourcePath, &r.PublishedPath, &r.Version, &at); err != nil {
		if err == sql.ErrNoRows {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("ledger: scan: %w", err)
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return Record{}, fmt.Errorf("ledger: parse published_at %q: %w", at, err)
	}
	r.PublishedAt = t
	return r, nil
}
