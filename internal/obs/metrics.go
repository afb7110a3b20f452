// Package obs exposes Prometheus metrics for the HTTP API, the backup
// manager and asset mutations.
package obs

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// BackupsTotal counts snapshot attempts by result (success, error, pre_restore).
	BackupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_backups_total",
			Help: "Database snapshots taken, by result.",
		},
		[]string{"result"},
	)

	// BackupsExpired counts snapshot files removed by the retention sweep.
	BackupsExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "asset_backups_expired_total",
		Help: "Snapshot files removed by the retention sweep.",
	})

	// RestoresTotal counts restore attempts by result.
	RestoresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_restores_total",
			Help: "Database restores, by result.",
		},
		[]string{"result"},
	)

	// AssetMutations counts successful asset writes by action tag.
	AssetMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_mutations_total",
			Help: "Successful asset mutations, by action.",
		},
		[]string{"action"},
	)

	// LoginAttempts counts authentication attempts by result.
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_login_attempts_total",
			Help: "Authentication attempts, by result.",
		},
		[]string{"result"},
	)
)

var initOnce sync.Once

// Init registers every collector with the default registry. Calling it
// more than once is harmless.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			BackupsTotal, BackupsExpired, RestoresTotal, AssetMutations, LoginAttempts,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request count, latency and in-flight requests. The
// route label is the matched ServeMux pattern so ids do not explode label
// cardinality.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &StatusWriter{ResponseWriter: w, Code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(sw.Code)
		httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

// StatusWriter remembers the response code written through it.
type StatusWriter struct {
	http.ResponseWriter
	Code int
}

func (w *StatusWriter) WriteHeader(code int) {
	w.Code = code
	w.ResponseWriter.WriteHeader(code)
}
