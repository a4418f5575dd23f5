// Package agent implements the storefront probe: it periodically requests a
// set of pages, measures their latency and reports the samples to the
// latency server.
package agent

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/idudko/storefront-latency/internal/model"
	"github.com/idudko/storefront-latency/pkg/workerpool"
)

// reportQueueSize bounds the reports waiting for a free worker.
const reportQueueSize = 100

// Service drives a Prober and a Sender on their own schedules.
type Service struct {
	prober   *Prober
	sender   *Sender
	useBatch bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	workerPool *workerpool.WorkerPool
}

// NewService creates a probe service. rateLimit is the number of reports
// sent concurrently.
func NewService(prober *Prober, sender *Sender, useBatch bool, rateLimit int) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		prober:     prober,
		sender:     sender,
		useBatch:   useBatch,
		ctx:        ctx,
		cancel:     cancel,
		workerPool: workerpool.New(rateLimit, reportQueueSize),
	}
}

func (s *Service) Start(pollInterval, reportInterval time.Duration) {
	s.workerPool.Start(s.ctx)

	s.wg.Add(1)
	go s.probe(pollInterval)

	s.wg.Add(1)
	go s.report(reportInterval)
}

// Stop ends probing and cancels in-flight reports, then sends whatever is
// still buffered using ctx.
func (s *Service) Stop(ctx context.Context) {
	s.cancel()
	s.wg.Wait()
	s.flush(ctx)
}

func (s *Service) probe(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.prober.Probe(s.ctx)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) report(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.enqueue()
		case <-s.ctx.Done():
			s.workerPool.Stop()
			return
		}
	}
}

// enqueue drains the prober into report tasks.
func (s *Service) enqueue() {
	samples := s.prober.Drain()
	if len(samples) == 0 {
		return
	}

	if s.useBatch {
		ok := s.workerPool.TryEnqueue(func(ctx context.Context) error {
			return s.sendBatch(ctx, samples)
		})
		if !ok {
			log.Warn().Int("samples", len(samples)).Msg("report queue full, dropping samples")
		}
		return
	}

	for _, sample := range samples {
		ok := s.workerPool.TryEnqueue(func(ctx context.Context) error {
			return s.sender.SendSample(ctx, sample)
		})
		if !ok {
			log.Warn().Str("endpoint", sample.Endpoint).Msg("report queue full, dropping sample")
		}
	}
}

func (s *Service) flush(ctx context.Context) {
	samples := s.prober.Drain()
	if len(samples) == 0 {
		return
	}

	if s.useBatch {
		if err := s.sendBatch(ctx, samples); err != nil {
			log.Error().Err(err).Int("samples", len(samples)).Msg("failed to flush samples")
		}
		return
	}
	for _, sample := range samples {
		if err := s.sender.SendSample(ctx, sample); err != nil {
			log.Error().Err(err).Str("endpoint", sample.Endpoint).Msg("failed to flush sample")
		}
	}
}

func (s *Service) sendBatch(ctx context.Context, samples []model.Sample) error {
	result, err := s.sender.SendBatch(ctx, samples)
	if err != nil {
		return err
	}
	log.Debug().Int("accepted", result.Accepted).Int("rejected", result.Rejected).Msg("samples reported")
	return nil
}
