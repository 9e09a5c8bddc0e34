// Package client provides the HTTP client used to read the people API and
// the related resources a person points to.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/swapi-etl/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for source API requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapi_requests_total",
		Help: "Total source API requests by resource kind and status",
	}, []string{"kind", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "swapi_request_duration_seconds",
		Help:    "Source API request duration in seconds by resource kind",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"kind"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapi_errors_total",
		Help: "Total source API errors by class",
	}, []string{"class"})
)

// Response is a fully read GET response.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns nil for a 2xx response and a *FetchError otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return statusError(r.URL, r.StatusCode)
}

// Getter performs a GET against a locator.
// Non-2xx responses are returned, not converted to errors.
type Getter interface {
	Get(ctx context.Context, locator string) (*Response, error)
}

// Client reads JSON resources from the source API.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://swapi.dev/api".
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout per request. Zero means no timeout.
	Timeout time.Duration

	// MaxIdleConnsPerHost bounds the keep-alive pool shared by all workers.
	MaxIdleConnsPerHost int
}

// DefaultConfig returns the configuration for the public API.
func DefaultConfig() Config {
	return Config{
		BaseURL:             "https://swapi.dev/api",
		UserAgent:           "swapi-etl/0.1.0",
		Timeout:             30 * time.Second,
		MaxIdleConnsPerHost: 100,
	}
}

// New creates a new Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 100
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		config: cfg,
		logger: logging.NewLogger("swapi-client"),
	}, nil
}

// PersonURL returns the locator of the person with the given id.
func (c *Client) PersonURL(id int) string {
	return c.config.BaseURL + "/people/" + strconv.Itoa(id)
}

// Get performs a GET request and reads the whole body.
// Transport and read failures are returned as *FetchError with ErrorClassNetwork.
func (c *Client) Get(ctx context.Context, locator string) (*Response, error) {
	kind := resourceKind(locator)
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(kind).Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("locator", locator).Msg("HTTP request failed")
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(kind, "network_error").Inc()
		return nil, &FetchError{URL: locator, ErrorClass: ErrorClassNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(kind, "network_error").Inc()
		return nil, &FetchError{URL: locator, StatusCode: resp.StatusCode, ErrorClass: ErrorClassNetwork, Err: fmt.Errorf("read body: %w", err)}
	}

	requestsTotal.WithLabelValues(kind, strconv.Itoa(resp.StatusCode)).Inc()
	if class := classifyStatus(resp.StatusCode); class != "" {
		errorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Debug().
			Str("locator", locator).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Source returned error status")
	}

	return &Response{
		URL:        locator,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// resourceKind extracts the collection name from a locator so metric labels
// stay bounded: ".../api/planets/1/" -> "planets".
func resourceKind(locator string) string {
	u, err := url.Parse(locator)
	if err != nil {
		return "unknown"
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" {
			continue
		}
		if _, err := strconv.Atoi(seg); err == nil {
			continue
		}
		return seg
	}
	return "unknown"
}
