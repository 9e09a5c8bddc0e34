// Package config loads the swapi-etl configuration from an optional YAML
// file and SWAPI_ETL_* environment variables.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Store    StoreConfig    `mapstructure:"store"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// SourceConfig describes the people API.
type SourceConfig struct {
	BaseURL   string        `mapstructure:"base_url" validate:"required,url"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
	UserAgent string        `mapstructure:"user_agent" validate:"required"`
}

// FetchConfig is the id range and the number of ids fetched in parallel.
// EndID is exclusive.
type FetchConfig struct {
	StartID   int `mapstructure:"start_id" validate:"gte=0"`
	EndID     int `mapstructure:"end_id" validate:"gtefield=StartID"`
	BatchSize int `mapstructure:"batch_size" validate:"gte=1"`
}

// PipelineConfig controls how records are handed to workers.
type PipelineConfig struct {
	ChunkSize  int `mapstructure:"chunk_size" validate:"gte=1"`
	MaxWorkers int `mapstructure:"max_workers" validate:"gte=0"`
}

// StoreConfig selects the database.
type StoreConfig struct {
	Driver       string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	DSN          string `mapstructure:"dsn" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

// CacheConfig enables the redis response cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr string        `mapstructure:"redis_addr" validate:"omitempty,hostname_port"`
	TTL       time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// Enabled reports whether a redis address is configured.
func (c CacheConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Pretty bool   `mapstructure:"pretty"`
}

// MetricsConfig enables the /metrics listener when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}
