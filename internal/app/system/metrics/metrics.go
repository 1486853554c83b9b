// Package metrics holds the application's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "strataboot"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	seedRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "seed",
			Name:      "rows_total",
			Help:      "Seed candidates processed, by entity kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	serverErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "server_errors_total",
			Help:      "HTTP 500 responses written by the error reporter.",
		},
		[]string{"handled"},
	)

	sinkDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "logsink",
			Name:      "dropped_total",
			Help:      "Log records a diagnostic sink could not deliver.",
		},
		[]string{"sink"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		seedRows,
		serverErrors,
		sinkDrops,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordSeedRow counts one seed candidate outcome.
func RecordSeedRow(kind, outcome string) {
	seedRows.WithLabelValues(kind, outcome).Inc()
}

// RecordServerError counts one 500 response.
func RecordServerError(handled bool) {
	serverErrors.WithLabelValues(strconv.FormatBool(handled)).Inc()
}

// RecordSinkDrop counts one record a sink dropped.
func RecordSinkDrop(sink string) {
	sinkDrops.WithLabelValues(sink).Inc()
}

// InstrumentHandler records request counts and durations labelled by the
// matched chi route pattern, so path parameters do not explode cardinality.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
