// Package server exposes a running benchmark over HTTP: Prometheus metrics,
// a health probe and the final report once it is available.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/agbru/cgbench/internal/errors"
	"github.com/agbru/cgbench/internal/logging"
	"github.com/agbru/cgbench/internal/report"
)

// Server is the observability endpoint of a benchmark run. It wraps the
// standard http.Server and shuts down gracefully when its context ends.
type Server struct {
	httpServer *http.Server
	logger     logging.Logger
	registry   *prometheus.Registry
	requests   *requestMetrics
	timeouts   Timeouts
	runID      string
	started    time.Time

	mu     sync.RWMutex
	report *report.Report
}

// NewServer creates a server listening on addr.
//
// Parameters:
//   - addr: The listen address, e.g. ":9090".
//   - opts: Optional functional options (WithLogger, WithRegistry, ...).
//
// Returns:
//   - *Server: A pointer to the initialized Server.
func NewServer(addr string, opts ...Option) *Server {
	s := &Server{
		logger:   logging.NewNopLogger(),
		timeouts: DefaultServerTimeouts(),
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.requests = newRequestMetrics(s.registry)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.wrapWithMiddleware("/health", s.handleHealth))
	mux.HandleFunc("/report", s.wrapWithMiddleware("/report", s.handleReport))
	mux.HandleFunc("/metrics", s.wrapWithMiddleware("/metrics", s.handleMetrics))

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}
	return s
}

// Handler returns the server's request multiplexer.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// SetReport publishes the final report on /report.
func (s *Server) SetReport(r *report.Report) {
	s.mu.Lock()
	s.report = r
	s.mu.Unlock()
}

func (s *Server) currentReport() *report.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// wrapWithMiddleware applies logging and request counting to a handler.
func (s *Server) wrapWithMiddleware(path string, handler http.HandlerFunc) http.HandlerFunc {
	return s.loggingMiddleware(s.metricsMiddleware(path, handler))
}

// Start serves until ctx is canceled, then shuts down within the configured
// shutdown timeout.
//
// Returns:
//   - error: A ServerError if the listener cannot be opened or shutdown
//     fails, nil after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return apperrors.NewServerError("server failed to start", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("metrics server listening",
			logging.String("addr", ln.Addr().String()),
			logging.String("endpoints", "/metrics /health /report"))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return apperrors.NewServerError("server stopped unexpectedly", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}
	s.logger.Debug("metrics server stopped")
	return nil
}
