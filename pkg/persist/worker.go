// Package persist flattens raw people and writes them to the store, one
// chunk per call.
package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/swapi-etl/pkg/logging"
	"github.com/Sternrassler/swapi-etl/pkg/people"
	"github.com/Sternrassler/swapi-etl/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	rowsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_rows_persisted_total",
		Help: "Total people rows committed to the store",
	})

	chunksTruncated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_chunks_truncated_total",
		Help: "Chunks cut short by a not-found marker",
	})
)

// Session is a unit of work against the store.
type Session interface {
	Add(row *store.PersonRow)
	Commit(ctx context.Context) error
	Close() error
}

// SessionFactory opens a new Session.
type SessionFactory func() Session

// Resolver turns relationship locators into a joined display string.
type Resolver interface {
	Resolve(ctx context.Context, locators []string, field string) (string, error)
}

// Result summarizes one PersistChunk call.
type Result struct {
	// Rows is the number of committed rows.
	Rows int

	// Truncated is set when a not-found marker ended the chunk.
	Truncated bool
}

// Worker persists chunks of raw people.
type Worker struct {
	sessions SessionFactory
	resolver Resolver
	logger   zerolog.Logger
}

// NewWorker creates a Worker. Both dependencies are shared by all calls.
func NewWorker(sessions SessionFactory, resolver Resolver) *Worker {
	return &Worker{
		sessions: sessions,
		resolver: resolver,
		logger:   logging.NewLogger("persist"),
	}
}

// PersistChunk persists chunk in order, committing after every row.
// The first not-found marker ends the chunk without error; records after it
// are dropped. On failure rows committed so far stay in the store.
func (w *Worker) PersistChunk(ctx context.Context, chunk []people.RawRecord) error {
	_, err := w.Persist(ctx, chunk)
	return err
}

// Persist is PersistChunk with a summary of the work done.
func (w *Worker) Persist(ctx context.Context, chunk []people.RawRecord) (Result, error) {
	var res Result
	start := time.Now()

	session := w.sessions()
	defer session.Close()

	for i, rec := range chunk {
		if rec.NotFound {
			res.Truncated = true
			chunksTruncated.Inc()
			w.logger.Warn().
				Int("person_id", rec.ID).
				Int("dropped", len(chunk)-i-1).
				Msg("Not-found marker, dropping rest of chunk")
			break
		}

		person, err := w.flatten(ctx, rec)
		if err != nil {
			return res, err
		}

		row := store.NewPersonRow(person)
		session.Add(row)
		if err := session.Commit(ctx); err != nil {
			return res, fmt.Errorf("commit person %d: %w", rec.ID, err)
		}
		res.Rows++
		rowsPersisted.Inc()

		w.logger.Debug().
			Int("person_id", rec.ID).
			Int64("row_id", row.ID).
			Msg("Person stored")
	}

	w.logger.Debug().
		Int("rows", res.Rows).
		Bool("truncated", res.Truncated).
		Dur("duration", time.Since(start)).
		Msg("Chunk persisted")
	return res, nil
}

// flatten copies the scalar fields and resolves every relationship field.
func (w *Worker) flatten(ctx context.Context, rec people.RawRecord) (people.Person, error) {
	var p people.Person

	for _, field := range people.ScalarFields {
		v, err := rec.String(field)
		if err != nil {
			return people.Person{}, err
		}
		p.SetScalar(field, v)
	}

	for _, rel := range people.Relations {
		locators, err := rec.Locators(rel.Field)
		if err != nil {
			return people.Person{}, err
		}
		joined, err := w.resolver.Resolve(ctx, locators, rel.Display)
		if err != nil {
			return people.Person{}, fmt.Errorf("resolve %s of person %d: %w", rel.Field, rec.ID, err)
		}
		p.SetRelation(rel.Field, joined)
	}

	return p, nil
}
