// Package server assembles the HTTP surface of the latency service: the chi
// router with its middleware chain, and a server with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/idudko/storefront-latency/internal/handler"
	"github.com/idudko/storefront-latency/internal/middleware"
	"github.com/idudko/storefront-latency/internal/service"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Options collects everything the router needs. Only Recorder is required.
type Options struct {
	Recorder *service.Recorder

	// Pinger backs GET /ping; nil answers 500.
	Pinger handler.DBPinger
	// Export is reported on GET /healthz; may be nil.
	Export handler.ExportStats
	// Gatherer backs GET /metrics; nil omits the route.
	Gatherer prometheus.Gatherer

	Key           string
	TrustedSubnet string
	// RateLimiter throttles the ingest routes; nil disables limiting.
	RateLimiter *middleware.RateLimiter
}

// NewRouter builds the routing tree.
//
// Every request passes RequestID, LoggingMiddleware, RecordingMiddleware and
// chi's Recoverer in that order, so panics become recorded 500 samples.
// Ingest routes additionally pass rate limiting, signature validation and
// gzip decompression.
func NewRouter(opts Options) chi.Router {
	h := handler.NewHandler(opts.Recorder)
	ping := handler.NewPingHandler(opts.Pinger)
	health := handler.NewHealthHandler(opts.Recorder, opts.Export)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RecordingMiddleware(opts.Recorder))
	r.Use(chimw.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.TrustedSubnetMiddleware(opts.TrustedSubnet))
		r.Get("/api/metrics", h.SummaryHandler)
		r.Get("/api/metrics/samples", h.SamplesHandler)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware(opts.RateLimiter))
		r.Use(middleware.HashValidationMiddleware(opts.Key))
		r.Use(middleware.GzipRequestMiddleware)
		r.Post("/api/metrics", h.IngestHandler)
		r.Post("/api/metrics/batch", h.IngestBatchHandler)
	})

	r.Get("/ping", ping.PingHandler)
	r.Get("/healthz", health.HealthHandler)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// Server is an HTTP server that shuts down when its context is cancelled.
type Server struct {
	srv *http.Server
}

// New returns a Server that serves h on addr with a bounded header read timeout.
func New(addr string, h http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Run serves until ctx is cancelled, then stops accepting connections and
// waits for in-flight requests to finish.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", s.srv.Addr).Msg("starting HTTP server")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
