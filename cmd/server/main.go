package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/idudko/storefront-latency/internal/export"
	"github.com/idudko/storefront-latency/internal/handler"
	"github.com/idudko/storefront-latency/internal/logger"
	"github.com/idudko/storefront-latency/internal/middleware"
	"github.com/idudko/storefront-latency/internal/repository"
	"github.com/idudko/storefront-latency/internal/server"
	"github.com/idudko/storefront-latency/internal/service"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(2)
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *Config) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	subject := export.NewSubject()
	archive, err := attachObservers(ctx, cfg, subject, registry)
	if err != nil {
		if closeErr := subject.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close export observers")
		}
		return err
	}

	dispatcher := export.NewDispatcher(subject, cfg.ExportWorkers, cfg.ExportQueue)
	dispatcher.Start(context.WithoutCancel(ctx))

	window := repository.NewWindow(cfg.WindowSize)
	recorder := service.NewRecorder(window, dispatcher)

	opts := server.Options{
		Recorder:      recorder,
		Export:        dispatcher,
		Gatherer:      registry,
		Key:           cfg.Key,
		TrustedSubnet: cfg.TrustedSubnet,
	}
	if archive != nil {
		opts.Pinger = archive
	}
	if cfg.IngestRate > 0 {
		opts.RateLimiter = middleware.NewRateLimiter(cfg.IngestRate, int(cfg.IngestRate))
	}

	log.Info().
		Str("address", cfg.Address).
		Int("window_size", window.Cap()).
		Int("observers", subject.Len()).
		Msg("latency metrics server configured")

	runErr := server.New(cfg.Address, server.NewRouter(opts)).Run(ctx)

	if err := dispatcher.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to close export observers")
	}
	log.Info().
		Uint64("exported", dispatcher.Queued()).
		Uint64("dropped", dispatcher.Dropped()).
		Msg("export pipeline drained")
	return runErr
}

// attachObservers connects every configured export sink. The log and
// Prometheus observers are always present. The Postgres observer is returned
// separately because it also answers GET /ping.
func attachObservers(ctx context.Context, cfg *Config, subject *export.Subject, registry prometheus.Registerer) (handler.DBPinger, error) {
	subject.Attach(export.NewLogObserver(log.Logger))
	subject.Attach(export.NewPrometheusObserver(registry))

	if cfg.ExportFile != "" {
		subject.Attach(export.NewFileObserver(cfg.ExportFile))
	}
	if cfg.ExportURL != "" {
		subject.Attach(export.NewHTTPObserver(cfg.ExportURL, cfg.Key))
	}

	var archive handler.DBPinger
	if cfg.DSN != "" {
		pg, err := export.NewPostgresObserver(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres export: %w", err)
		}
		subject.Attach(pg)
		archive = pg
	}
	if cfg.NatsURL != "" {
		nc, err := export.NewNATSObserver(cfg.NatsURL, export.DefaultNATSSubject)
		if err != nil {
			return nil, fmt.Errorf("nats export: %w", err)
		}
		subject.Attach(nc)
	}
	if cfg.RedisAddr != "" {
		rc, err := export.NewRedisObserver(ctx, cfg.RedisAddr, export.DefaultRedisStream, cfg.RedisMaxLen)
		if err != nil {
			return nil, fmt.Errorf("redis export: %w", err)
		}
		subject.Attach(rc)
	}

	return archive, nil
}
