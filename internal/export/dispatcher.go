package export

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/idudko/storefront-latency/internal/model"
	"github.com/idudko/storefront-latency/pkg/workerpool"
)

// Dispatcher queues recorded samples and fans them out to a Subject.
// It satisfies service.Emitter.
type Dispatcher struct {
	subject *Subject
	pool    *workerpool.WorkerPool

	mu      sync.RWMutex
	stopped bool

	queued  atomic.Uint64
	dropped atomic.Uint64
}

// NewDispatcher creates a dispatcher with workers goroutines and a queue of queueSize samples.
func NewDispatcher(subject *Subject, workers, queueSize int) *Dispatcher {
	return &Dispatcher{
		subject: subject,
		pool:    workerpool.New(workers, queueSize),
	}
}

// Start launches the export workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.pool.Start(ctx)
}

// Emit queues s for export. It never blocks: when the queue is full or the
// dispatcher is stopped the sample is dropped and counted.
func (d *Dispatcher) Emit(s model.Sample) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.dropped.Add(1)
		return
	}

	e := NewEnvelope(s)
	ok := d.pool.TryEnqueue(func(ctx context.Context) error {
		d.subject.NotifyAll(ctx, e)
		return nil
	})
	if !ok {
		if d.dropped.Add(1)%100 == 1 {
			log.Warn().Uint64("dropped", d.dropped.Load()).Msg("export queue full, dropping samples")
		}
		return
	}
	d.queued.Add(1)
}

// Stop rejects further samples, waits for queued ones to be exported and
// closes the observers.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	d.mu.Unlock()

	d.pool.Stop()
	return d.subject.Close()
}

// Queued returns the number of samples accepted for export.
func (d *Dispatcher) Queued() uint64 {
	return d.queued.Load()
}

// Dropped returns the number of samples that were not exported.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}
