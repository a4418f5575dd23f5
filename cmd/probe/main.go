package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/idudko/storefront-latency/internal/agent"
	"github.com/idudko/storefront-latency/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(2)
	}
	logger.Init(cfg.LogLevel, false)

	prober := agent.NewProber(cfg.TargetList(), time.Duration(cfg.Timeout)*time.Second)
	sender := agent.NewSender(cfg.Address, cfg.Key)
	svc := agent.NewService(prober, sender, cfg.UseBatch, cfg.RateLimit)

	log.Info().
		Str("address", cfg.Address).
		Strs("targets", cfg.TargetList()).
		Int("poll_interval", cfg.PollInterval).
		Int("report_interval", cfg.ReportInterval).
		Msg("starting probe")
	svc.Start(time.Duration(cfg.PollInterval)*time.Second, time.Duration(cfg.ReportInterval)*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down probe")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	svc.Stop(shutdownCtx)
	log.Info().Msg("probe stopped")
}
