// Package metrics exposes the Prometheus registry used by the exchange-rate
// client and the HTTP instrumentation shared by the proxy.
//
// Client and cache metrics are defined in their own packages via promauto so
// that importing the library is enough to register them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registerer used by all packages.
var Registry = prometheus.DefaultRegisterer

var (
	proxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fx_proxy_http_requests_total",
		Help: "Total proxy HTTP requests by route and status code",
	}, []string{"route", "code"})

	proxyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fx_proxy_http_request_duration_seconds",
		Help:    "Proxy HTTP request duration in seconds by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		proxyRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		proxyDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - fx_requests_total{endpoint, status} (Counter): upstream requests by mirror and HTTP status
//   - fx_request_duration_seconds{endpoint} (Histogram): upstream request duration by mirror
//   - fx_errors_total{class} (Counter): upstream errors by class (client, server, network, decode)
//   - fx_fallbacks_total{from, to} (Counter): switches from the preferred mirror to the other one
//   - fx_no_data_total (Counter): lookups where both mirrors failed
//
// Cache Metrics (pkg/cache):
//   - fx_cache_hits_total{store} (Counter): cache hits by store (file, redis, memory)
//   - fx_cache_misses_total{store} (Counter): cache misses by store
//   - fx_cache_writes_total{store} (Counter): cache writes by store
//   - fx_cache_errors_total{store, operation} (Counter): cache operation errors
//
// Proxy Metrics (this package):
//   - fx_proxy_http_requests_total{route, code} (Counter)
//   - fx_proxy_http_request_duration_seconds{route} (Histogram)
//
// Example Prometheus Queries:
//
//	# Cache Hit Rate
//	sum(rate(fx_cache_hits_total[5m])) /
//	(sum(rate(fx_cache_hits_total[5m])) + sum(rate(fx_cache_misses_total[5m])))
//
//	# Fallback Rate per mirror
//	sum by (from) (rate(fx_fallbacks_total[5m]))
//
//	# P95 Upstream Latency
//	histogram_quantile(0.95, rate(fx_request_duration_seconds_bucket[5m]))
