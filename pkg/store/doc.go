// Package store persists flattened people into a relational database.
//
// Two drivers are supported: PostgreSQL through pgx's database/sql driver and
// SQLite through modernc.org/sqlite. The schema lives in embedded goose
// migrations, one directory per dialect.
//
// The write path mirrors a unit-of-work session: Add stages a row, Commit
// writes every staged row in one transaction and assigns ids, Close discards
// whatever was not committed. Sessions are cheap and independent; all of them
// share the *sql.DB connection pool, so workers may commit concurrently.
package store
