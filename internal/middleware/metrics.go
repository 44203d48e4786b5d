package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_transactions_total",
			Help: "Submitted transactions by outcome",
		},
		[]string{"result"},
	)

	DocumentsRendered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_documents_rendered_total",
			Help: "Rendered receipts and kitchen tickets",
		},
		[]string{"kind", "format"},
	)
)

var initMetrics sync.Once

// InitMetrics registers the collectors with the default registry.
func InitMetrics() {
	initMetrics.Do(func() {
		prometheus.MustRegister(HttpRequestsTotal, HttpRequestDuration, TransactionsTotal, DocumentsRendered)
	})
}

// Prometheus records request counts and latencies by chi route pattern.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		duration := time.Since(start)

		path := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HttpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		HttpRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "undefined"
}
