// Command swapi-etl copies the people of the Star Wars API into a
// relational table, one flattened row per person.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/swapi-etl/internal/config"
	"github.com/Sternrassler/swapi-etl/pkg/cache"
	"github.com/Sternrassler/swapi-etl/pkg/client"
	"github.com/Sternrassler/swapi-etl/pkg/logging"
	"github.com/Sternrassler/swapi-etl/pkg/metrics"
	"github.com/Sternrassler/swapi-etl/pkg/pagination"
	"github.com/Sternrassler/swapi-etl/pkg/persist"
	"github.com/Sternrassler/swapi-etl/pkg/pipeline"
	"github.com/Sternrassler/swapi-etl/pkg/resolver"
	"github.com/Sternrassler/swapi-etl/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("swapi-etl", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.StringP("config", "c", "", "path to a YAML config file")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "swapi-etl: %v\n", err)
		return 1
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(cfg.Log.Level)
	logCfg.Pretty = cfg.Log.Pretty
	logCfg.Output = stderr
	logging.Setup(logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	stats, err := execute(ctx, cfg)
	elapsed := time.Since(start)

	fmt.Fprintf(stdout, "%d rows in %d chunks, %d not found, elapsed %s\n",
		stats.Rows, stats.Chunks, stats.NotFound, elapsed.Round(time.Millisecond))

	if err != nil {
		log.Error().Err(err).Dur("duration", elapsed).Msg("ETL run failed")
		return 1
	}
	return 0
}

// execute builds the components from cfg and runs the pipeline once.
func execute(ctx context.Context, cfg *config.Config) (pipeline.Stats, error) {
	db, err := store.Open(ctx, store.Config{
		Driver:       cfg.Store.Driver,
		DSN:          cfg.Store.DSN,
		MaxOpenConns: cfg.Store.MaxOpenConns,
	})
	if err != nil {
		return pipeline.Stats{}, err
	}
	defer db.Close()

	api, err := client.New(client.Config{
		BaseURL:   cfg.Source.BaseURL,
		UserAgent: cfg.Source.UserAgent,
		Timeout:   cfg.Source.Timeout,
	})
	if err != nil {
		return pipeline.Stats{}, fmt.Errorf("create client: %w", err)
	}
	defer api.Close()

	var resolverOpts []resolver.Option
	if cfg.Cache.Enabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return pipeline.Stats{}, fmt.Errorf("connect to redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		log.Info().Str("addr", cfg.Cache.RedisAddr).Dur("ttl", cfg.Cache.TTL).Msg("Display value cache enabled")
		fields := cache.NewFieldStore(rdb, cfg.Cache.TTL)
		resolverOpts = append(resolverOpts, resolver.WithCache(cache.NewFieldCache(fields)))
	}

	if cfg.Metrics.Addr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := metrics.Serve(metricsCtx, cfg.Metrics.Addr); err != nil {
				log.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("Metrics listener failed")
			}
		}()
	}

	fetcher, err := pagination.NewRangeFetcher(api, api.PersonURL, pagination.Config{
		StartID:   cfg.Fetch.StartID,
		EndID:     cfg.Fetch.EndID,
		BatchSize: cfg.Fetch.BatchSize,
	})
	if err != nil {
		return pipeline.Stats{}, err
	}

	sessions := func() persist.Session { return db.NewSession() }
	worker := persist.NewWorker(sessions, resolver.New(api, resolverOpts...))

	p, err := pipeline.New(db, fetcher, worker, pipeline.Config{
		ChunkSize:  cfg.Pipeline.ChunkSize,
		MaxWorkers: cfg.Pipeline.MaxWorkers,
	})
	if err != nil {
		return pipeline.Stats{}, err
	}
	return p.Run(ctx)
}
