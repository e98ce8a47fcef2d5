// Package metrics provides Prometheus instrumentation for the calc engine.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CalcRequestsTotal counts calculator invocations by outcome ("ok", "invalid"
	// or "out_of_range").
	CalcRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "investcalc_calc_requests_total",
		Help: "Calculator invocations",
	}, []string{"calculator", "outcome"})

	// FxResponsesTotal counts rate responses by the source reported to the caller.
	FxResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "investcalc_fx_responses_total",
		Help: "Exchange-rate responses by source",
	}, []string{"source"})

	// FxUpstreamRequestsTotal counts upstream fetches by provider and outcome.
	FxUpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "investcalc_fx_upstream_requests_total",
		Help: "Upstream exchange-rate fetches",
	}, []string{"provider", "outcome"})

	// FxUpstreamLatency tracks upstream fetch duration.
	FxUpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "investcalc_fx_upstream_latency_seconds",
		Help:    "Upstream exchange-rate fetch latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"provider"})

	// FxRate is the last stored USD→KRW rate.
	FxRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "investcalc_fx_rate",
		Help: "Last stored USD/KRW rate",
	})

	// WebSocketClients tracks connected rate-stream clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "investcalc_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "investcalc_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "investcalc_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		HTTPRequestsTotal.WithLabelValues(r.Method, routePattern(r), strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, routePattern(r)).Observe(duration)
	})
}

// routePattern prefers the chi route pattern over the raw path to keep label
// cardinality bounded.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
