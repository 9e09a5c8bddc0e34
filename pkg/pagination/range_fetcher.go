package pagination

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/swapi-etl/pkg/client"
	"github.com/Sternrassler/swapi-etl/pkg/logging"
	"github.com/Sternrassler/swapi-etl/pkg/people"
	"github.com/rs/zerolog"
)

// ErrSequenceConsumed is reported when Records is iterated a second time.
var ErrSequenceConsumed = errors.New("record sequence already consumed")

// Config holds range fetcher configuration
type Config struct {
	// StartID is the first id fetched (inclusive).
	StartID int
	// EndID bounds the range (exclusive).
	EndID int
	// BatchSize is the number of ids fetched in parallel.
	BatchSize int
}

// DefaultConfig returns the range of the public people API.
func DefaultConfig() Config {
	return Config{
		StartID:   1,
		EndID:     200,
		BatchSize: 10,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be >= 1 (got %d)", c.BatchSize)
	}
	if c.EndID < c.StartID {
		return fmt.Errorf("end id %d is before start id %d", c.EndID, c.StartID)
	}
	return nil
}

// PersonLocator maps a person id to its locator.
type PersonLocator func(id int) string

// RangeFetcher produces the raw people of an id range, batch by batch.
type RangeFetcher struct {
	getter client.Getter
	locate PersonLocator
	config Config
	logger zerolog.Logger

	started atomic.Bool
	mu      sync.Mutex
	err     error
}

// NewRangeFetcher creates a new range fetcher.
func NewRangeFetcher(getter client.Getter, locate PersonLocator, config Config) (*RangeFetcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &RangeFetcher{
		getter: getter,
		locate: locate,
		config: config,
		logger: logging.NewLogger("range-fetcher"),
	}, nil
}

// Records returns the lazy record sequence. It can be iterated once; a fetch
// failure ends it early and is reported by Err.
func (rf *RangeFetcher) Records(ctx context.Context) iter.Seq[people.RawRecord] {
	return func(yield func(people.RawRecord) bool) {
		if rf.started.Swap(true) {
			rf.setErr(ErrSequenceConsumed)
			return
		}

		start := time.Now()
		total := rf.config.EndID - rf.config.StartID
		fetched := 0

		for lo := rf.config.StartID; lo < rf.config.EndID; lo += rf.config.BatchSize {
			hi := min(lo+rf.config.BatchSize, rf.config.EndID)

			records, err := rf.fetchBatch(ctx, lo, hi)
			if err != nil {
				rf.logger.Error().
					Err(err).
					Int("batch_start", lo).
					Int("fetched", fetched).
					Msg("Range fetch aborted")
				rf.setErr(err)
				return
			}
			fetched += len(records)

			rf.logger.Info().
				Int("fetched", fetched).
				Int("total", total).
				Float64("progress_pct", float64(fetched)/float64(total)*100).
				Msg("Fetch progress")

			for _, rec := range records {
				if !yield(rec) {
					return
				}
			}
		}

		rf.logger.Info().
			Int("records", fetched).
			Dur("duration", time.Since(start)).
			Msg("Range fetch complete")
	}
}

// Err returns the error that ended the sequence, if any.
func (rf *RangeFetcher) Err() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	return rf.err
}

func (rf *RangeFetcher) setErr(err error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.err == nil {
		rf.err = err
	}
}

// fetchBatch fetches ids [lo, hi) concurrently and returns them in id order.
// The error of the lowest failing id wins.
func (rf *RangeFetcher) fetchBatch(ctx context.Context, lo, hi int) ([]people.RawRecord, error) {
	n := hi - lo
	records := make([]people.RawRecord, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			records[i], errs[i] = rf.fetchPerson(ctx, lo+i)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (rf *RangeFetcher) fetchPerson(ctx context.Context, id int) (people.RawRecord, error) {
	rf.logger.Debug().Int("person_id", id).Msg("begin")

	resp, err := rf.getter.Get(ctx, rf.locate(id))
	if err != nil {
		return people.RawRecord{}, fmt.Errorf("fetch person %d: %w", id, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		rf.logger.Debug().Int("person_id", id).Msg("not found")
		return people.NotFoundMarker(id), nil
	}
	if err := resp.Err(); err != nil {
		return people.RawRecord{}, fmt.Errorf("fetch person %d: %w", id, err)
	}

	rec, err := people.DecodeRecord(id, resp.Body)
	if err != nil {
		return people.RawRecord{}, &client.FetchError{
			URL:        resp.URL,
			StatusCode: resp.StatusCode,
			ErrorClass: client.ErrorClassDecode,
			Err:        err,
		}
	}

	rf.logger.Debug().Int("person_id", id).Msg("end")
	return rec, nil
}
