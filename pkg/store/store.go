package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Sternrassler/swapi-etl/pkg/logging"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DBTX is implemented by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Config holds database connection settings.
type Config struct {
	// Driver is "postgres" or "sqlite".
	Driver string

	// DSN is the driver-specific connection string.
	DSN string

	// MaxOpenConns bounds the pool shared by all sessions. SQLite is always 1.
	MaxOpenConns int
}

// DB is the people store.
type DB struct {
	db      *sql.DB
	dialect Dialect
	logger  zerolog.Logger
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store dsn is required")
	}

	db, err := sql.Open(dialect.driverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	switch {
	case dialect == DialectSQLite:
		// one writer at a time
		db.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger := logging.NewLogger("store").With().Str("dialect", string(dialect)).Logger()
	logger.Info().Msg("Database connection established")

	return &DB{db: db, dialect: dialect, logger: logger}, nil
}

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Reset drops and recreates the schema. The people table is dropped
// whether or not the migrations created it, then every migration is rolled
// back and applied again. Existing rows are lost.
func (d *DB) Reset(ctx context.Context) error {
	start := time.Now()

	if _, err := d.db.ExecContext(ctx, "DROP TABLE IF EXISTS people"); err != nil {
		return fmt.Errorf("drop people table: %w", err)
	}

	fsys, err := d.dialect.migrations()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	provider, err := goose.NewProvider(d.dialect.gooseDialect(), d.db, fsys,
		goose.WithLogger(&gooseLogger{logger: d.logger}),
		goose.WithVerbose(true),
	)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	if _, err := provider.DownTo(ctx, 0); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	d.logger.Info().
		Int("migrations", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Schema reset")
	return nil
}

// NewSession starts an empty unit of work.
func (d *DB) NewSession() *Session {
	return &Session{db: d}
}

// CountPeople returns the number of stored rows.
func (d *DB) CountPeople(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM people").Scan(&n); err != nil {
		return 0, fmt.Errorf("count people: %w", err)
	}
	return n, nil
}

// ListPeople returns all rows ordered by id.
func (d *DB) ListPeople(ctx context.Context) ([]PersonRow, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT id, "+columnList+" FROM people ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	var out []PersonRow
	for rows.Next() {
		var r PersonRow
		if err := rows.Scan(append([]any{&r.ID}, r.scanTargets()...)...); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}
	return out, nil
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct {
	logger zerolog.Logger
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.logger.Debug().Msgf(format, v...)
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error().Msgf(format, v...)
}
