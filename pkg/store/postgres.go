package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/chazu/steelframe/pkg/logging"
	"github.com/chazu/steelframe/pkg/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS models (
    id         TEXT PRIMARY KEY,
    type       TEXT NOT NULL DEFAULT 'template',
    name       TEXT NOT NULL DEFAULT '',
    data       JSONB NOT NULL,
    progress   INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres keeps records in a models table with the model tree as JSONB.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// OpenPostgres connects a pool to dsn and applies the schema.
func OpenPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse connection config: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("store: create connection pool: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	logger = logging.OrNop(logger).Named("store")
	logger.Info("Connected to postgres",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database))
	return &Postgres{pool: pool, logger: logger}, nil
}

// Ping checks the connection, for readiness probes.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) List(ctx context.Context) ([]model.Record, error) {
	rows, err := p.pool.Query(ctx, `
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
		rec, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (p *Postgres) Load(ctx context.Context, id string) (model.Record, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, type, name, data, progress, created_at
		FROM models
		WHERE lower(id) = lower($1)
	`, id)
	rec, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

func (p *Postgres) Save(ctx context.Context, rec model.Record) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", rec.ID, err)
	}
	created := rec.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO models (id, type, name, data, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, now())
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			name = EXCLUDED.name,
			data = EXCLUDED.data,
			progress = EXCLUDED.progress,
			updated_at = now()
	`, rec.ID, string(rec.Type), rec.Name, string(data), rec.Progress, created)
	if err != nil {
		return fmt.Errorf("store: save %s: %w", rec.ID, err)
	}
	p.logger.Debug("Saved model", zap.String("id", rec.ID), zap.Int("bytes", len(data)))
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM models WHERE lower(id) = lower($1)`, id)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func scanPostgres(row pgx.Row) (model.Record, error) {
	var (
		rec  model.Record
		typ  string
		data []byte
	)
	if err := row.Scan(&rec.ID, &typ, &rec.Name, &data, &rec.Progress, &rec.Created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("store: scan: %w", err)
	}
	rec.Type = model.RecordType(typ)
	if err := json.Unmarshal(data, &rec.Data); err != nil {
		return rec, fmt.Errorf("store: decode %s: %w", rec.ID, err)
	}
	return rec, nil
}
