// Package cache provides an optional Redis-backed cache of resolved display
// values.
//
// A pipeline run resolves the same planets, films and starships over and over:
// every person from Tatooine needs the name of /planets/1/. FieldStore keeps
// each (locator, field) value as a plain redis string with an expiry, and
// FieldCache plugs it into the resolver.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := cache.NewFieldStore(redisClient, 24*time.Hour)
//	res := resolver.New(httpClient, resolver.WithCache(cache.NewFieldCache(store)))
//
// Only successfully extracted strings are stored. Cache errors are logged and
// treated as misses, so a Redis outage degrades to plain fetching.
//
// # Metrics
//
//   - swapi_cache_hits_total
//   - swapi_cache_misses_total
//   - swapi_cache_size_bytes
//   - swapi_cache_errors_total{operation}
package cache
