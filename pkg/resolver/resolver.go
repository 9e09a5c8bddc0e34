// Package resolver turns lists of related-resource locators into the
// human-readable strings stored on a flattened person.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/swapi-etl/pkg/client"
	"github.com/Sternrassler/swapi-etl/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

// Separator joins the resolved values of one relationship field.
const Separator = ", "

// ErrFieldMissing is returned when a fetched resource lacks the requested
// field or holds null in it.
var ErrFieldMissing = errors.New("field missing")

// Cache remembers display values by locator and field. Implementations
// handle their own failures; a failed Lookup is a miss.
type Cache interface {
	Lookup(ctx context.Context, locator, field string) (string, bool)
	Store(ctx context.Context, locator, field, value string)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache consults c before fetching and fills it after every
// successful extraction.
func WithCache(c Cache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

// Resolver fetches related resources and extracts one field from each.
type Resolver struct {
	getter client.Getter
	cache  Cache
	logger zerolog.Logger
}

// New creates a Resolver reading through getter.
func New(getter client.Getter, opts ...Option) *Resolver {
	r := &Resolver{
		getter: getter,
		logger: logging.NewLogger("resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches every locator concurrently, extracts field from each JSON
// object and joins the values with Separator in locator order.
// Any failed fetch or missing field fails the whole call.
func (r *Resolver) Resolve(ctx context.Context, locators []string, field string) (string, error) {
	if len(locators) == 0 {
		return "", nil
	}

	values := make([]string, len(locators))
	var g errgroup.Group
	for i, locator := range locators {
		g.Go(func() error {
			v, err := r.fetchField(ctx, locator, field)
			if err != nil {
				return err
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	r.logger.Debug().
		Str("field", field).
		Int("locators", len(locators)).
		Msg("Resolved references")

	return strings.Join(values, Separator), nil
}

func (r *Resolver) fetchField(ctx context.Context, locator, field string) (string, error) {
	if r.cache != nil {
		if v, ok := r.cache.Lookup(ctx, locator, field); ok {
			return v, nil
		}
	}

	resp, err := r.getter.Get(ctx, locator)
	if err != nil {
		return "", err
	}
	if err := resp.Err(); err != nil {
		return "", err
	}
	if !gjson.ValidBytes(resp.Body) {
		return "", &client.FetchError{
			URL:        locator,
			StatusCode: resp.StatusCode,
			ErrorClass: client.ErrorClassDecode,
			Err:        errors.New("invalid JSON body"),
		}
	}

	value := gjson.GetBytes(resp.Body, gjson.Escape(field))
	switch value.Type {
	case gjson.String:
	case gjson.Null:
		return "", fmt.Errorf("%w: %q in %s", ErrFieldMissing, field, locator)
	default:
		return "", &client.FetchError{
			URL:        locator,
			StatusCode: resp.StatusCode,
			ErrorClass: client.ErrorClassDecode,
			Err:        fmt.Errorf("field %q is %s, want string", field, jsonKind(value)),
		}
	}

	if r.cache != nil {
		r.cache.Store(ctx, locator, field, value.Str)
	}
	return value.Str, nil
}

func jsonKind(v gjson.Result) string {
	switch {
	case v.IsObject():
		return "object"
	case v.IsArray():
		return "array"
	case v.IsBool():
		return "bool"
	default:
		return "number"
	}
}
