// Package pipeline wires the range fetcher, the re-chunker and the
// persistence workers into one ETL run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/swapi-etl/pkg/logging"
	"github.com/Sternrassler/swapi-etl/pkg/pagination"
	"github.com/Sternrassler/swapi-etl/pkg/people"
	"github.com/Sternrassler/swapi-etl/pkg/persist"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	chunksDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_chunks_dispatched_total",
		Help: "Chunks handed to persistence workers",
	})

	workerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_worker_failures_total",
		Help: "Persistence workers that ended with an error",
	})

	workersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "etl_workers_active",
		Help: "Persistence workers currently running",
	})
)

// Schema recreates the target table.
type Schema interface {
	Reset(ctx context.Context) error
}

// Source yields raw records once and reports why it stopped.
type Source interface {
	Records(ctx context.Context) iter.Seq[people.RawRecord]
	Err() error
}

// Persister writes one chunk.
type Persister interface {
	Persist(ctx context.Context, chunk []people.RawRecord) (persist.Result, error)
}

// Config holds pipeline configuration.
type Config struct {
	// ChunkSize is the number of records handed to one worker.
	ChunkSize int

	// MaxWorkers caps concurrently running workers. Zero means unbounded.
	MaxWorkers int
}

// DefaultConfig returns chunks of 10 and no worker ceiling.
func DefaultConfig() Config {
	return Config{ChunkSize: 10}
}

// Stats summarizes a run.
type Stats struct {
	RunID    string
	Chunks   int
	Rows     int
	NotFound int
	Duration time.Duration
}

// Pipeline runs the ETL.
type Pipeline struct {
	schema    Schema
	source    Source
	persister Persister
	config    Config
	logger    zerolog.Logger
}

// New creates a Pipeline.
func New(schema Schema, source Source, persister Persister, config Config) (*Pipeline, error) {
	if config.ChunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be >= 1 (got %d)", config.ChunkSize)
	}
	if config.MaxWorkers < 0 {
		return nil, fmt.Errorf("max workers must be >= 0 (got %d)", config.MaxWorkers)
	}
	return &Pipeline{
		schema:    schema,
		source:    source,
		persister: persister,
		config:    config,
		logger:    logging.NewLogger("pipeline"),
	}, nil
}

// Run resets the schema, then streams records into chunks and hands every
// chunk to its own worker without waiting for it. Once the source is
// drained all workers are awaited. A worker failure does not stop the
// others; the first one is returned, joined with any source error.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	stats := Stats{RunID: uuid.NewString()}
	logger := p.logger.With().Str("run_id", stats.RunID).Logger()

	if err := p.schema.Reset(ctx); err != nil {
		return stats, fmt.Errorf("reset schema: %w", err)
	}
	logger.Info().
		Int("chunk_size", p.config.ChunkSize).
		Int("max_workers", p.config.MaxWorkers).
		Msg("Run started")

	var g errgroup.Group
	if p.config.MaxWorkers > 0 {
		g.SetLimit(p.config.MaxWorkers)
	}

	var rows atomic.Int64
	for chunk := range pagination.Rechunk(p.source.Records(ctx), p.config.ChunkSize) {
		stats.Chunks++
		stats.NotFound += countNotFound(chunk)
		seq := stats.Chunks

		chunksDispatched.Inc()
		logger.Debug().Int("chunk", seq).Int("records", len(chunk)).Msg("Chunk dispatched")

		g.Go(func() error {
			workersActive.Inc()
			defer workersActive.Dec()

			res, err := p.persister.Persist(ctx, chunk)
			rows.Add(int64(res.Rows))
			if err != nil {
				workerFailures.Inc()
				logger.Error().Err(err).Int("chunk", seq).Int("rows", res.Rows).Msg("Worker failed")
				return fmt.Errorf("chunk %d: %w", seq, err)
			}
			logger.Debug().Int("chunk", seq).Int("rows", res.Rows).Msg("Chunk persisted")
			return nil
		})
	}

	var fetchErr error
	if err := p.source.Err(); err != nil {
		fetchErr = fmt.Errorf("fetch people: %w", err)
	}
	workerErr := g.Wait()

	stats.Rows = int(rows.Load())
	stats.Duration = time.Since(start)

	err := errors.Join(fetchErr, workerErr)
	level := zerolog.InfoLevel
	if err != nil {
		level = zerolog.ErrorLevel
	}
	logger.WithLevel(level).
		Err(err).
		Int("chunks", stats.Chunks).
		Int("rows", stats.Rows).
		Int("not_found", stats.NotFound).
		Dur("duration", stats.Duration).
		Msg("Run finished")

	return stats, err
}

func countNotFound(chunk []people.RawRecord) int {
	n := 0
	for _, r := range chunk {
		if r.NotFound {
			n++
		}
	}
	return n
}
