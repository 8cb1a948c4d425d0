// Package metrics exposes Prometheus instrumentation for the HTTP surface,
// the database layer and the layout engine.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ctxKey string

const (
	routeLabelKey   ctxKey = "metrics_route"
	requestIDCtxKey ctxKey = "metrics_request_id"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timegrid_http_requests_total",
		Help: "HTTP requests served.",
	}, []string{"method", "route"})

	httpErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timegrid_http_errors_total",
		Help: "HTTP requests that ended in a 5xx status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timegrid_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	dbLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timegrid_db_latency_seconds",
		Help:    "Database operation latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "route"})

	layoutDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timegrid_layout_duration_seconds",
		Help:    "Full layout pass latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	layoutSegments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timegrid_layout_segments_total",
		Help: "Day segments produced by layout passes.",
	})

	syncOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timegrid_sync_outcomes_total",
		Help: "Coalesced sync flushes by outcome.",
	}, []string{"outcome"})
)

// Middleware counts and times every request, labelled by the chi route
// pattern so path parameters do not explode cardinality. It also stows the
// route and request ID in the context for ObserveDBLatency and the error
// helpers downstream.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routePattern(r)

			ctx := context.WithValue(r.Context(), routeLabelKey, route)
			if id := middleware.GetReqID(r.Context()); id != "" {
				ctx = context.WithValue(ctx, requestIDCtxKey, id)
			}

			rec := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			began := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))

			code := strconv.Itoa(rec.Status())
			httpRequests.WithLabelValues(r.Method, route).Inc()
			httpDuration.WithLabelValues(r.Method, route, code).Observe(time.Since(began).Seconds())
			if rec.Status() >= http.StatusInternalServerError {
				httpErrors.WithLabelValues(r.Method, route, code).Inc()
			}
		})
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDBLatency records one database operation, attributed to the route
// that triggered it when the context carries one.
func ObserveDBLatency(ctx context.Context, operation string, start time.Time) {
	dbLatency.WithLabelValues(operation, routeFromContext(ctx)).Observe(time.Since(start).Seconds())
}

// ObserveLayout records a layout pass and the number of segments it produced.
func ObserveLayout(ctx context.Context, segments int, start time.Time) {
	layoutDuration.WithLabelValues(routeFromContext(ctx)).Observe(time.Since(start).Seconds())
	layoutSegments.Add(float64(segments))
}

// CountSyncOutcome tracks the result of a coalesced write flush
// ("success" or "error").
func CountSyncOutcome(outcome string) {
	syncOutcomes.WithLabelValues(outcome).Inc()
}

// RequestIDFromContext returns the request ID stowed by Middleware, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey).(string)
	return id
}

func routeFromContext(ctx context.Context) string {
	if route, ok := ctx.Value(routeLabelKey).(string); ok && route != "" {
		return route
	}
	return "unknown"
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := strings.TrimSpace(rctx.RoutePattern()); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
