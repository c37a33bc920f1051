// Package metrics documents the Prometheus metrics of the BGG client and
// exposes them over HTTP. All metrics are defined in their respective
// packages (client, gate, ratelimit, pagination, fanout) to maintain
// modularity and avoid circular dependencies.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gatherer is the registry read by Handler. All metrics are registered on
// the default registry via promauto in their respective packages.
var Gatherer = prometheus.DefaultGatherer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Admission Metrics (pkg/gate):
//   - bgg_gate_in_flight (Gauge): Requests currently holding a concurrency slot
//   - bgg_gate_waits_total (Counter): Admissions that had to wait for a free slot
//
// Window Metrics (pkg/ratelimit):
//   - bgg_window_admissions_total (Counter): Requests admitted into the request window
//   - bgg_window_waits_total (Counter): Checks that found the window full
//   - bgg_window_wait_seconds (Histogram): Time spent waiting for window rollover
//
// Request Metrics (pkg/client):
//   - bgg_requests_total{endpoint, status} (Counter): Attempts by endpoint and HTTP status
//   - bgg_request_duration_seconds{endpoint} (Histogram): Logical request duration, retries included
//   - bgg_errors_total{class} (Counter): Attempt errors by class (client, server, rate_limit, pending, network, decode, too_large)
//
// Retry Metrics (pkg/client):
//   - bgg_retries_total{error_class} (Counter): Retry attempts by error class
//   - bgg_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - bgg_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Aggregation Metrics (pkg/pagination, pkg/fanout):
//   - bgg_pagination_pages_total{resource, result} (Counter): Follow-up pages by outcome
//   - bgg_fanout_subrequests_total{category, result} (Counter): Fan-out sub-requests by outcome
//
// Example Prometheus Queries:
//
//   # Share of attempts answered with 202 or 429
//   sum(rate(bgg_requests_total{status=~"202|429"}[5m])) / sum(rate(bgg_requests_total[5m]))
//
//   # Window saturation
//   rate(bgg_window_waits_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(bgg_request_duration_seconds_bucket[5m]))
//
//   # Dropped pages
//   sum by (resource) (rate(bgg_pagination_pages_total{result="failed"}[15m]))
