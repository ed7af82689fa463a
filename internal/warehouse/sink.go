// Package warehouse writes frames to database destinations.
//
// Every write replaces the whole table: the old table is dropped, a new one
// is created from the frame's inferred column types and the rows are loaded.
// Two destinations are used per run, one for the raw inputs and one for the
// transformed views; both are plain Sink values chosen by driver name.
package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/salesetl/internal/frame"
)

// Sink writes whole tables.
type Sink interface {
	// Write replaces table with the contents of f.
	Write(ctx context.Context, table string, f *frame.Frame) error
	Close() error
}

// Supported driver names.
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"
)

// Destination names a database and how to reach it.
type Destination struct {
	// Name labels the destination in logs ("raw" or "dw").
	Name   string
	Driver string
	URL    string
}

// Options tunes connections and writes.
type Options struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// BatchSize is the number of rows per INSERT for database/sql drivers.
	BatchSize int

	// WriteTimeout bounds one table replace. Zero means no limit.
	WriteTimeout time.Duration
}

const defaultBatchSize = 1000

// Open connects to dest and returns a Sink for it.
func Open(ctx context.Context, dest Destination, opts Options) (Sink, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	switch strings.ToLower(dest.Driver) {
	case DriverPgx, "":
		return NewPgSink(ctx, dest.URL, opts)
	case DriverPostgres:
		return newSQLSink(ctx, postgresDialect, dest.URL, opts)
	case DriverMySQL:
		return newSQLSink(ctx, mysqlDialect, dest.URL, opts)
	case DriverMemory:
		return NewMemorySink(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", dest.Driver)
	}
}

func withWriteTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
