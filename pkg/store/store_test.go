package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Sternrassler/swapi-etl/pkg/people"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openSQLite opens a fresh file-backed SQLite store with the schema applied.
func openSQLite(t *testing.T) *DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "people.db") + "?_pragma=busy_timeout(5000)"
	db, err := Open(context.Background(), Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Reset(context.Background()))
	return db
}

func person(name string) people.Person {
	return people.Person{
		Name:      name,
		BirthYear: "19BBY",
		Homeworld: "Tatooine",
		Films:     "A New Hope, The Empire Strikes Back",
	}
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"postgres", DialectPostgres, false},
		{"PostgreSQL", DialectPostgres, false},
		{"pgx", DialectPostgres, false},
		{"sqlite", DialectSQLite, false},
		{"sqlite3", DialectSQLite, false},
		{"mysql", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDialect(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInsertQuery(t *testing.T) {
	pg := insertQuery(DialectPostgres)
	assert.Contains(t, pg, "VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id")

	lite := insertQuery(DialectSQLite)
	assert.Contains(t, lite, "VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id")
}

func TestOpen_Validation(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{Driver: "sqlite"})
	assert.EqualError(t, err, "store dsn is required")
}

func TestSession_CommitAssignsIDs(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	s := db.NewSession()
	defer s.Close()

	luke := NewPersonRow(person("Luke Skywalker"))
	s.Add(luke)
	require.NoError(t, s.Commit(ctx))
	leia := NewPersonRow(person("Leia Organa"))
	s.Add(leia)
	require.NoError(t, s.Commit(ctx))

	assert.NotZero(t, luke.ID)
	assert.NotEqual(t, luke.ID, leia.ID)
	assert.Zero(t, s.Pending())

	rows, err := db.ListPeople(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, luke.Person, rows[0].Person)
	assert.Equal(t, "Tatooine", rows[1].Homeworld)
}

func TestSession_CloseDiscardsPending(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	s := db.NewSession()
	s.Add(NewPersonRow(person("Biggs Darklighter")))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Commit(ctx), ErrSessionClosed)

	n, err := db.CountPeople(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSession_EmptyCommit(t *testing.T) {
	db := openSQLite(t)
	s := db.NewSession()
	defer s.Close()

	assert.NoError(t, s.Commit(context.Background()))
}

func TestReset_IsDestructive(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	s := db.NewSession()
	for i := 0; i < 3; i++ {
		s.Add(NewPersonRow(person(fmt.Sprintf("first run %d", i))))
	}
	require.NoError(t, s.Commit(ctx))
	s.Close()

	require.NoError(t, db.Reset(ctx))

	n, err := db.CountPeople(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	s = db.NewSession()
	defer s.Close()
	row := NewPersonRow(person("second run"))
	s.Add(row)
	require.NoError(t, s.Commit(ctx))
	assert.Equal(t, int64(1), row.ID, "ids restart with the recreated table")
}

func TestReset_DropsForeignPeopleTable(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "people.db") + "?_pragma=busy_timeout(5000)"
	db, err := Open(ctx, Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// a table the migrations know nothing about, e.g. left by an older loader
	_, err = db.db.ExecContext(ctx, "CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	_, err = db.db.ExecContext(ctx, "INSERT INTO people (name) VALUES ('stale')")
	require.NoError(t, err)

	require.NoError(t, db.Reset(ctx))

	n, err := db.CountPeople(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	s := db.NewSession()
	defer s.Close()
	s.Add(NewPersonRow(person("fresh")))
	require.NoError(t, s.Commit(ctx), "recreated table must carry every column")
}

func TestSession_ConcurrentWriters(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	const workers, perWorker = 8, 5
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			s := db.NewSession()
			defer s.Close()
			for i := 0; i < perWorker; i++ {
				s.Add(NewPersonRow(person(fmt.Sprintf("w%d-%d", w, i))))
				if err := s.Commit(ctx); err != nil {
					errs <- err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("commit failed: %v", err)
	}

	rows, err := db.ListPeople(ctx)
	require.NoError(t, err)
	require.Len(t, rows, workers*perWorker)

	seen := make(map[int64]bool)
	for _, r := range rows {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
	}
}

func TestSession_CommitFailureKeepsEarlierRows(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	s := db.NewSession()
	s.Add(NewPersonRow(person("committed")))
	require.NoError(t, s.Commit(ctx))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	s.Add(NewPersonRow(person("lost")))
	err := s.Commit(cancelled)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	s.Close()

	n, err := db.CountPeople(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
