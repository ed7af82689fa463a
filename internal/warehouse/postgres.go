package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/salesetl/internal/frame"
	"github.com/JonMunkholm/salesetl/internal/logging"
)

// PgSink writes tables to PostgreSQL through a pgx pool using COPY.
type PgSink struct {
	pool *pgxpool.Pool
	opts Options
}

// NewPgSink parses url, applies the pool settings and verifies the connection.
func NewPgSink(ctx context.Context, url string, opts Options) (*PgSink, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	poolConfig.MinConns = int32(opts.MinConns)
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PgSink{pool: pool, opts: opts}, nil
}

// Write drops, recreates and bulk loads table in one transaction.
func (s *PgSink) Write(ctx context.Context, table string, f *frame.Frame) error {
	if f == nil {
		return fmt.Errorf("write %s: no data", table)
	}
	ctx, cancel := withWriteTimeout(ctx, s.opts.WriteTimeout)
	defer cancel()

	cols := columnsOf(f)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if _, err := tx.Exec(ctx, dropTableSQL(postgresDialect, table)); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	if _, err := tx.Exec(ctx, createTableSQL(postgresDialect, table, cols)); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{table}, names, pgx.CopyFromRows(castRows(f, cols)))
	if err != nil {
		return fmt.Errorf("copy into %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logging.FromContext(ctx).Debug("table replaced", "table", table, "rows", copied, "driver", DriverPgx)
	return nil
}

// Pool exposes the underlying pool for read access.
func (s *PgSink) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *PgSink) Close() error {
	s.pool.Close()
	return nil
}
