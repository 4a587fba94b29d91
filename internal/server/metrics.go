package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agbru/cgbench/internal/logging"
)

// requestMetrics tracks the server's own traffic.
type requestMetrics struct {
	active prometheus.Gauge
	total  *prometheus.CounterVec
}

func newRequestMetrics(reg prometheus.Registerer) *requestMetrics {
	f := promauto.With(reg)
	return &requestMetrics{
		active: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "cgbench",
			Subsystem: "http",
			Name:      "active_requests",
			Help:      "Current number of active requests",
		}),
		total: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cgbench",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of requests received, by path and status code",
		}, []string{"path", "code"}),
	}
}

// handleMetrics serves the registry in the Prometheus exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware tracks active requests and counts completed ones.
func (s *Server) metricsMiddleware(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.requests.active.Inc()
		defer s.requests.active.Dec()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next(rec, r)
		s.requests.total.WithLabelValues(path, strconv.Itoa(rec.code)).Inc()
	}
}

// loggingMiddleware logs every request at debug level.
func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		s.logger.Debug("http request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("duration", time.Since(start)))
	}
}
