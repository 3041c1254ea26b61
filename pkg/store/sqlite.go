package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/chazu/steelframe/pkg/model"
)

// ============================================================
// SQLite store
// ============================================================

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS models (
    id         TEXT PRIMARY KEY,
    type       TEXT NOT NULL DEFAULT 'template',
    name       TEXT NOT NULL DEFAULT '',
    data       TEXT NOT NULL,
    progress   INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

// SQLite keeps records in a models table of a local database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at dbPath and applies
// the schema.
func OpenSQLite(ctx context.Context, dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("store: mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) List(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, type, name, data, progress, created_at
        FROM models
        ORDER BY created_at, id
    `)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var recs []model.Record
	for rows.Next() {
		rec, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLite) Load(ctx context.Context, id string) (model.Record, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, type, name, data, progress, created_at
        FROM models
        WHERE lower(id) = lower(?)
    `, id)
	rec, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

func (s *SQLite) Save(ctx context.Context, rec model.Record) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", rec.ID, err)
	}
	created := rec.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO models (id, type, name, data, progress, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            type = excluded.type,
            name = excluded.name,
            data = excluded.data,
            progress = excluded.progress,
            updated_at = excluded.updated_at
    `, rec.ID, string(rec.Type), rec.Name, string(data), rec.Progress, created.Format(time.RFC3339Nano), now)
	if err != nil {
		return fmt.Errorf("store: save %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE lower(id) = lower(?)`, id)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(sc scanner) (model.Record, error) {
	var (
		rec     model.Record
		typ     string
		data    string
		created string
	)
	if err := sc.Scan(&rec.ID, &typ, &rec.Name, &data, &rec.Progress, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("store: scan: %w", err)
	}
	rec.Type = model.RecordType(typ)
	if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
		return rec, fmt.Errorf("store: decode %s: %w", rec.ID, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		rec.Created = t
	}
	return rec, nil
}
