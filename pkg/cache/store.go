package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is used when a FieldStore is created without a TTL.
const DefaultTTL = 24 * time.Hour

// ErrCacheMiss indicates the requested key was not found in cache
var ErrCacheMiss = errors.New("cache miss")

// FieldStore keeps display values as plain redis strings. Expiry is left to
// redis, so a value is either present and fresh or absent.
type FieldStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewFieldStore creates a store writing values that live for ttl.
// A non-positive ttl means DefaultTTL.
func NewFieldStore(redisClient *redis.Client, ttl time.Duration) *FieldStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FieldStore{redis: redisClient, ttl: ttl}
}

// Get returns the stored value or ErrCacheMiss.
func (s *FieldStore) Get(ctx context.Context, key FieldKey) (string, error) {
	value, err := s.redis.Get(ctx, key.String()).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", ErrCacheMiss
	case err != nil:
		CacheErrors.WithLabelValues("get").Inc()
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key for the store's TTL.
func (s *FieldStore) Set(ctx context.Context, key FieldKey, value string) error {
	if err := s.redis.Set(ctx, key.String(), value, s.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	CacheSize.Add(float64(len(value)))
	return nil
}

// Delete removes key.
func (s *FieldStore) Delete(ctx context.Context, key FieldKey) error {
	if err := s.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// TTL returns the lifetime given to new values.
func (s *FieldStore) TTL() time.Duration {
	return s.ttl
}
