// Package client provides the catalog search HTTP client.
//
// The client is fail-soft: any transport failure, non-success status or
// undecodable body is logged and reported to the caller as an empty result,
// never as a partial page.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/movie-search/pkg/catalog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Prometheus metrics for catalog client operations.
var (
	catalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total catalog search requests by status",
	}, []string{"status"})

	catalogRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Catalog search request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	catalogErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_errors_total",
		Help: "Total catalog errors by class",
	}, []string{"class"})
)

// SearchPath is the catalog movie search endpoint.
const SearchPath = "/3/search/movie"

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a 2xx response whose body is not a page.
	ErrorClassDecode ErrorClass = "decode"
)

// Client is the catalog search client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
	inflight   singleflight.Group
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the catalog API, e.g. "https://api.themoviedb.org".
	BaseURL string

	// APIKey is the static bearer credential.
	APIKey string

	// Language is the fixed locale sent with every search.
	Language string

	// UserAgent header value.
	UserAgent string
}

// DefaultConfig returns the configuration for the public TMDB API.
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL:   "https://api.themoviedb.org",
		APIKey:    apiKey,
		Language:  "en-US",
		UserAgent: "movie-search/0.1.0",
	}
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.Language == "" {
		cfg.Language = "en-US"
	}

	logger := log.With().Str("component", "catalog-client").Logger()

	return &Client{
		// No Timeout: requests are bounded only by the caller's context.
		httpClient: &http.Client{},
		baseURL:    base,
		config:     cfg,
		logger:     logger,
	}, nil
}

// FetchPage performs one search request for query and page.
//
// ok is false when the query is empty, page < 1, or the request failed for
// any reason. Callers cannot tell a failure from "no more results"; the
// failure is logged here. Concurrent calls for the same query and page
// share a single request; a caller whose shared request was cancelled by
// another caller's context issues its own.
func (c *Client) FetchPage(ctx context.Context, query catalog.SearchQuery, page int) (*catalog.Page, bool) {
	if query.IsEmpty() {
		c.logger.Warn().Msg("Refusing to search with empty query")
		return nil, false
	}
	if page < 1 {
		c.logger.Warn().Int("page", page).Msg("Refusing to search with page < 1")
		return nil, false
	}

	key := string(query) + "\x00" + strconv.Itoa(page)
	do := func() (interface{}, error) {
		return c.fetch(ctx, query, page)
	}
	v, err, shared := c.inflight.Do(key, do)
	if err != nil && shared && ctx.Err() == nil && isContextError(err) {
		// The caller that started the shared request gave up; our ctx is live.
		c.logger.Debug().
			Str("query", query.String()).
			Int("page", page).
			Msg("Shared request cancelled by another caller, fetching again")
		v, err, _ = c.inflight.Do(key, do)
	}
	if err != nil {
		c.logFailure(err, query, page)
		return nil, false
	}

	if shared {
		c.logger.Debug().
			Str("query", query.String()).
			Int("page", page).
			Msg("Shared in-flight search request")
	}

	return v.(*catalog.Page), true
}

// fetch executes the request and decodes the page.
func (c *Client) fetch(ctx context.Context, query catalog.SearchQuery, page int) (*catalog.Page, error) {
	req, err := c.newSearchRequest(ctx, query, page)
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result catalog.Page
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		catalogErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &CatalogError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode search response",
			Err:        err,
		}
	}

	if result.Number != page {
		if result.Number != 0 {
			c.logger.Warn().
				Int("requested", page).
				Int("returned", result.Number).
				Msg("Catalog returned a different page number")
		}
		result.Number = page
	}

	c.logger.Debug().
		Str("query", query.String()).
		Int("page", result.Number).
		Int("total_pages", result.TotalPages).
		Int("results", len(result.Results)).
		Msg("Search page fetched")

	return &result, nil
}

// newSearchRequest builds GET /3/search/movie with the fixed parameters.
func (c *Client) newSearchRequest(ctx context.Context, query catalog.SearchQuery, page int) (*http.Request, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + SearchPath

	params := url.Values{}
	params.Set("query", query.String())
	params.Set("include_adult", "false")
	params.Set("language", c.config.Language)
	params.Set("page", strconv.Itoa(page))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return req, nil
}

// Do sends req with credentials and returns the response for 2xx statuses.
// Any other outcome is returned as a *CatalogError and the body is closed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	startTime := time.Now()
	defer func() {
		catalogRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	c.logger.Debug().
		Str("endpoint", req.URL.Path).
		Str("method", req.Method).
		Msg("Executing catalog request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errClass := c.classifyError(nil, err)
		catalogErrorsTotal.WithLabelValues(string(errClass)).Inc()
		catalogRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, &CatalogError{
			ErrorClass: errClass,
			Message:    "request failed",
			Err:        err,
		}
	}

	catalogRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errClass := c.classifyError(resp, nil)
		catalogErrorsTotal.WithLabelValues(string(errClass)).Inc()
		resp.Body.Close()
		return nil, &CatalogError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}

	return resp, nil
}

// logFailure records a failed search at a level matching its class.
func (c *Client) logFailure(err error, query catalog.SearchQuery, page int) {
	event := c.logger.Warn()
	if ce, ok := AsCatalogError(err); ok && ce.ErrorClass == ErrorClassNetwork {
		event = c.logger.Error()
	}

	event.Err(err).
		Str("query", query.String()).
		Int("page", page).
		Str("error_class", string(ClassOf(err))).
		Msg("Catalog search failed, returning empty result")
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// classifyError categorizes a failure for observability.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}
	return classifyStatus(resp.StatusCode)
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
