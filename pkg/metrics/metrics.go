// Package metrics exposes the Prometheus registry used by swapi-etl.
// Metrics are defined in the packages that update them (client, cache,
// persist, pipeline) and registered via promauto on the default registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	// Registry is the registry every package registers with.
	Registry = prometheus.DefaultRegisterer

	// Gatherer collects what Registry holds.
	Gatherer = prometheus.DefaultGatherer
)

// Handler serves Gatherer in the Prometheus text format and counts its own
// scrapes on Registry.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(Registry, promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Metrics listener started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Metrics Documentation
//
// Source Metrics (pkg/client):
//   - swapi_requests_total{kind, status} (Counter): Requests by resource kind and HTTP status
//   - swapi_request_duration_seconds{kind} (Histogram): Request duration by resource kind
//   - swapi_errors_total{class} (Counter): Errors by class (client, server, network, decode)
//
// Cache Metrics (pkg/cache):
//   - swapi_cache_hits_total (Counter): Display values served from redis
//   - swapi_cache_misses_total (Counter): Display values resolved from the source
//   - swapi_cache_size_bytes (Gauge): Bytes of display values written to redis
//   - swapi_cache_errors_total{operation} (Counter): Cache operation errors
//
// Pipeline Metrics (pkg/persist, pkg/pipeline):
//   - etl_rows_persisted_total (Counter): Rows committed to the store
//   - etl_chunks_dispatched_total (Counter): Chunks handed to workers
//   - etl_chunks_truncated_total (Counter): Chunks cut short by a not-found marker
//   - etl_worker_failures_total (Counter): Workers that ended with an error
//   - etl_workers_active (Gauge): Workers currently running
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(swapi_cache_hits_total[5m])) /
//   (sum(rate(swapi_cache_hits_total[5m])) + sum(rate(swapi_cache_misses_total[5m])))
//
//   # Rows per second
//   rate(etl_rows_persisted_total[1m])
//
//   # P95 Request Latency by kind
//   histogram_quantile(0.95, sum by (kind, le) (rate(swapi_request_duration_seconds_bucket[5m])))
