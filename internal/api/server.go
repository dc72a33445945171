// Package api exposes a read-only HTTP introspection surface over the
// reactor's live state: the loaded trigger index, live timers (as a
// snapshot and as an SSE stream), prometheus metrics, and a health check.
// It is the Go-native analog of the original desktop app's Tauri IPC
// command surface, expressed as HTTP because this is a standalone service
// rather than a desktop shell.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tinkeringguild/logquest-go/internal/index"
	"github.com/tinkeringguild/logquest-go/internal/metrics"
	"github.com/tinkeringguild/logquest-go/internal/timers"
)

// Server wraps the chi-routed http.Server for the introspection surface.
type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// ServerOptions configures NewServer.
type ServerOptions struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	Index  *index.Index
	Timers *timers.Manager

	Version   string
	StartTime time.Time
	Log       zerolog.Logger

	// HealthChecks is populated by the caller with one entry per enabled
	// optional collaborator (eventlog, mqttpublish, audioarchive).
	HealthChecks []HealthCheck
}

// NewServer builds the router: request-id, access logging, panic recovery,
// and a response-timeout that exempts the SSE stream, then the five
// introspection routes.
func NewServer(opts ServerOptions) *Server {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(opts.Log))
	r.Use(Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(ResponseTimeout(opts.WriteTimeout))

	health := NewHealthHandler(opts.Index, opts.Timers, opts.Version, opts.StartTime, opts.HealthChecks...)
	r.Get("/healthz", health.ServeHTTP)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	triggersHandler := NewTriggersHandler(opts.Index)
	r.Get("/triggers", triggersHandler.ServeHTTP)

	timersHandler := NewTimersHandler(opts.Timers)
	r.Get("/timers", timersHandler.List)
	r.Get("/timers/stream", timersHandler.Stream)

	srv := &http.Server{
		Addr:        opts.Addr,
		Handler:     r,
		ReadTimeout: opts.ReadTimeout,
		IdleTimeout: opts.IdleTimeout,
		// WriteTimeout left at zero: the SSE stream is long-lived and the
		// ResponseTimeout middleware already bounds the non-streaming routes.
	}

	return &Server{http: srv, log: opts.Log}
}

// Start runs the server until Shutdown is called, returning nil on a clean
// shutdown rather than the sentinel http.ErrServerClosed.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("introspection http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server, letting in-flight requests (and the
// SSE stream) drain until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("introspection http server shutting down")
	return s.http.Shutdown(ctx)
}
