package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/lib/pq"                // PostgreSQL driver

	"github.com/JonMunkholm/salesetl/internal/frame"
	"github.com/JonMunkholm/salesetl/internal/logging"
)

// dialect holds the SQL spelling differences between database/sql drivers.
type dialect struct {
	driver      string
	quote       func(string) string
	placeholder func(n int) string
	types       map[frame.Kind]string
}

var postgresDialect = dialect{
	driver:      "postgres",
	quote:       pq.QuoteIdentifier,
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	types: map[frame.Kind]string{
		frame.KindNull:   "TEXT",
		frame.KindInt:    "BIGINT",
		frame.KindFloat:  "DOUBLE PRECISION",
		frame.KindString: "TEXT",
		frame.KindTime:   "TIMESTAMP",
	},
}

var mysqlDialect = dialect{
	driver:      "mysql",
	quote:       func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" },
	placeholder: func(int) string { return "?" },
	types: map[frame.Kind]string{
		frame.KindNull:   "TEXT",
		frame.KindInt:    "BIGINT",
		frame.KindFloat:  "DOUBLE",
		frame.KindString: "TEXT",
		frame.KindTime:   "DATETIME",
	},
}

func dropTableSQL(d dialect, table string) string {
	return "DROP TABLE IF EXISTS " + d.quote(table)
}

func createTableSQL(d dialect, table string, cols []column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = d.quote(c.name) + " " + d.types[c.kind]
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.quote(table), strings.Join(defs, ", "))
}

// insertSQL builds a multi-row INSERT for rows rows of cols.
func insertSQL(d dialect, table string, cols []column, rows int) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = d.quote(c.name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", d.quote(table), strings.Join(names, ", "))
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range cols {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.placeholder(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// SQLSink writes tables through database/sql with batched INSERTs.
type SQLSink struct {
	db   *sql.DB
	d    dialect
	opts Options
}

func newSQLSink(ctx context.Context, d dialect, url string, opts Options) (*SQLSink, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	db, err := sql.Open(d.driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(opts.MaxConns)
	}
	db.SetMaxIdleConns(opts.MinConns)
	db.SetConnMaxLifetime(opts.MaxConnLifetime)
	db.SetConnMaxIdleTime(opts.MaxConnIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", d.driver, err)
	}
	return &SQLSink{db: db, d: d, opts: opts}, nil
}

// Write drops, recreates and fills table. MySQL commits DDL implicitly, so
// there the replace is not atomic.
func (s *SQLSink) Write(ctx context.Context, table string, f *frame.Frame) error {
	if f == nil {
		return fmt.Errorf("write %s: no data", table)
	}
	ctx, cancel := withWriteTimeout(ctx, s.opts.WriteTimeout)
	defer cancel()

	cols := columnsOf(f)
	rows := castRows(f, cols)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if already committed

	if _, err := tx.ExecContext(ctx, dropTableSQL(s.d, table)); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(s.d, table, cols)); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}

	for start := 0; start < len(rows); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(rows))
		batch := rows[start:end]
		args := make([]any, 0, len(batch)*len(cols))
		for _, r := range batch {
			args = append(args, r...)
		}
		if _, err := tx.ExecContext(ctx, insertSQL(s.d, table, cols, len(batch)), args...); err != nil {
			return fmt.Errorf("insert into %s (rows %d-%d): %w", table, start, end-1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logging.FromContext(ctx).Debug("table replaced", "table", table, "rows", len(rows), "driver", s.d.driver)
	return nil
}

func (s *SQLSink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
