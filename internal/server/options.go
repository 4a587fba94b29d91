package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agbru/cgbench/internal/logging"
)

// Option defines a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets the server's logger. A nil logger keeps the default, which
// discards everything.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistry serves the metrics of reg on /metrics and registers the
// server's own request metrics there. Without it the server uses a private
// registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithRunID stamps /health responses with the run identifier.
func WithRunID(id string) Option {
	return func(s *Server) {
		s.runID = id
	}
}

// WithTimeouts sets custom timeout configuration for the server.
func WithTimeouts(timeouts Timeouts) Option {
	return func(s *Server) {
		s.timeouts = timeouts
	}
}

// Timeouts holds timeout configuration for the HTTP server.
type Timeouts struct {
	// ShutdownTimeout is the maximum duration allowed for graceful shutdown.
	ShutdownTimeout time.Duration
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	WriteTimeout time.Duration
	// IdleTimeout is how long keep-alive connections wait for the next
	// request.
	IdleTimeout time.Duration
}

// DefaultServerTimeouts returns timeouts suited to scrapes and report
// downloads.
func DefaultServerTimeouts() Timeouts {
	return Timeouts{
		ShutdownTimeout: 5 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     2 * time.Minute,
	}
}
