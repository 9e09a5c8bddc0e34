package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SWAPI_ETL_STORE_DSN.
const EnvPrefix = "SWAPI_ETL"

var defaults = map[string]any{
	"source.base_url":      "https://swapi.dev/api",
	"source.timeout":       "30s",
	"source.user_agent":    "swapi-etl/0.1.0",
	"fetch.start_id":       1,
	"fetch.end_id":         200,
	"fetch.batch_size":     10,
	"pipeline.chunk_size":  10,
	"pipeline.max_workers": 0,
	"store.driver":         "sqlite",
	"store.dsn":            "file:swapi.db?_pragma=busy_timeout(5000)",
	"store.max_open_conns": 10,
	"cache.redis_addr":     "",
	"cache.ttl":            "24h",
	"log.level":            "info",
	"log.pretty":           false,
	"metrics.addr":         "",
}

// Load reads configuration from path (optional, YAML) and the environment.
// Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag())
			}
			return nil, fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
