// Package export ships copies of recorded samples to external sinks.
//
// The recorder hands every accepted sample to a Dispatcher, which queues it
// without blocking and fans it out to the attached Observers on a small
// worker pool. Observer failures are logged and never reach the request path.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/idudko/storefront-latency/internal/model"
)

// Envelope is the exported form of a sample.
type Envelope struct {
	// ID identifies the export so sinks can de-duplicate retries.
	ID   string `json:"id"`
	Type string `json:"type"`
	model.Sample
}

// NewEnvelope wraps s with a fresh ID and the "metric" type tag.
func NewEnvelope(s model.Sample) Envelope {
	return Envelope{
		ID:     uuid.NewString(),
		Type:   model.LogType,
		Sample: s,
	}
}

// Observer receives exported samples.
type Observer interface {
	Name() string
	Notify(ctx context.Context, e Envelope) error
}

// Subject is a concurrency-safe set of observers.
type Subject struct {
	mu        sync.RWMutex
	observers []Observer
}

func NewSubject() *Subject {
	return &Subject{
		observers: make([]Observer, 0),
	}
}

func (s *Subject) Attach(observer Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

func (s *Subject) Detach(observer Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, obs := range s.observers {
		if obs == observer {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			break
		}
	}
}

// Len returns the number of attached observers.
func (s *Subject) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// NotifyAll delivers e to every observer. A failing or panicking observer is
// logged and does not prevent delivery to the others.
func (s *Subject) NotifyAll(ctx context.Context, e Envelope) {
	s.mu.RLock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.RUnlock()

	for _, observer := range observers {
		if err := notify(ctx, observer, e); err != nil {
			log.Warn().Err(err).Str("sink", observer.Name()).Str("id", e.ID).Msg("failed to export sample")
		}
	}
}

// Close closes every observer that implements io.Closer.
func (s *Subject) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, observer := range s.observers {
		if c, ok := observer.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", observer.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

func notify(ctx context.Context, observer Observer, e Envelope) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("observer panicked: %v", rec)
		}
	}()
	return observer.Notify(ctx, e)
}
