// Package metrics exposes the Prometheus registry and the health/metrics
// HTTP surface. All metrics are defined in their respective packages
// (client, pagination) and registered via promauto.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the default Prometheus registry.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Handler returns a router serving GET /health and GET /metrics.
func Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// Serve listens on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	logger := log.With().Str("component", "metrics").Logger()

	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Metrics server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("Metrics server stopping")
		return srv.Shutdown(shutdownCtx)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// Metrics Documentation
//
// Catalog Client Metrics (pkg/client):
//   - catalog_requests_total{status} (Counter): Search requests by HTTP status or "network_error"
//   - catalog_request_duration_seconds (Histogram): Search request duration
//   - catalog_errors_total{class} (Counter): Failures by class (client, server, network, decode)
//
// Pagination Metrics (pkg/pagination):
//   - pagination_pages_appended_total (Counter): Pages appended to a result set
//   - pagination_stale_responses_total (Counter): Responses dropped after a query change
//   - pagination_coalesced_total (Counter): Fetch-more signals ignored while a fetch was in flight
//   - pagination_exhausted_total{cause} (Counter): Result sets exhausted (last_page, empty)
//
// Example Prometheus Queries:
//
//   # Search Failure Rate
//   sum(rate(catalog_errors_total[5m])) / sum(rate(catalog_requests_total[5m]))
//
//   # P95 Search Latency
//   histogram_quantile(0.95, rate(catalog_request_duration_seconds_bucket[5m]))
//
//   # Result Sets Cut Short By Failures
//   rate(pagination_exhausted_total{cause="empty"}[5m])
