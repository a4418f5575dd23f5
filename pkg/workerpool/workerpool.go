// Package workerpool runs queued tasks on a fixed number of goroutines.
package workerpool

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task is a unit of work. A returned error is logged and otherwise ignored.
type Task func(ctx context.Context) error

// WorkerPool executes Tasks from a bounded queue.
type WorkerPool struct {
	workerCount int
	tasks       chan Task
	wg          sync.WaitGroup
	stopOnce    sync.Once
}

// New creates a pool of workerCount workers over a queue of queueSize tasks.
// Non-positive arguments are raised to 1.
func New(workerCount, queueSize int) *WorkerPool {
	return &WorkerPool{
		workerCount: max(workerCount, 1),
		tasks:       make(chan Task, max(queueSize, 1)),
	}
}

// Start launches the workers. They exit when ctx is cancelled or Stop is called.
func (p *WorkerPool) Start(ctx context.Context) {
	for range p.workerCount {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Stop closes the queue and waits for the workers to drain it.
// Enqueueing after Stop panics; TryEnqueue must not be called concurrently with Stop.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}

// Enqueue blocks until the task is queued or ctx is done.
func (p *WorkerPool) Enqueue(ctx context.Context, task Task) error {
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryEnqueue queues the task without blocking and reports whether it was accepted.
func (p *WorkerPool) TryEnqueue(task Task) bool {
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Pending returns the number of queued tasks not yet picked up by a worker.
func (p *WorkerPool) Pending() int {
	return len(p.tasks)
}

func (p *WorkerPool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.run(ctx, task)
		case <-ctx.Done():
			return
		}
	}
}

func (p *WorkerPool) run(ctx context.Context, task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("worker task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		log.Warn().Err(err).Msg("worker task failed")
	}
}
