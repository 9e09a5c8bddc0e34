package cache

import (
	"context"
	"errors"

	"github.com/Sternrassler/swapi-etl/pkg/logging"
	"github.com/rs/zerolog"
)

// Backend is the part of FieldStore used by FieldCache.
type Backend interface {
	Get(ctx context.Context, key FieldKey) (string, error)
	Set(ctx context.Context, key FieldKey, value string) error
}

// FieldCache adapts a Backend to the resolver's cache. Backend errors are
// logged and count as misses, so a redis outage degrades to plain fetching.
type FieldCache struct {
	backend Backend
	logger  zerolog.Logger
}

// NewFieldCache creates a FieldCache over backend.
func NewFieldCache(backend Backend) *FieldCache {
	return &FieldCache{
		backend: backend,
		logger:  logging.NewLogger("cache"),
	}
}

// Lookup returns the cached display value of field at locator.
func (c *FieldCache) Lookup(ctx context.Context, locator, field string) (string, bool) {
	value, err := c.backend.Get(ctx, FieldKey{Locator: locator, Field: field})
	switch {
	case err == nil:
		CacheHits.Inc()
		c.logger.Debug().Str("locator", locator).Str("field", field).Msg("Cache hit")
		return value, true
	case errors.Is(err, ErrCacheMiss):
		c.logger.Debug().Str("locator", locator).Str("field", field).Msg("Cache miss")
	default:
		c.logger.Warn().Err(err).Str("locator", locator).Msg("Cache get error")
	}
	CacheMisses.Inc()
	return "", false
}

// Store caches a resolved display value.
func (c *FieldCache) Store(ctx context.Context, locator, field, value string) {
	if err := c.backend.Set(ctx, FieldKey{Locator: locator, Field: field}, value); err != nil {
		c.logger.Warn().Err(err).Str("locator", locator).Msg("Failed to cache value")
	}
}
