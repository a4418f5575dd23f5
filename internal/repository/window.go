package repository

import (
	"sync"

	"github.com/idudko/storefront-latency/internal/model"
)

// DefaultWindowSize is the number of samples retained when no size is configured.
const DefaultWindowSize = 1000

// Window is a fixed-capacity, in-memory ring of the most recent samples.
//
// Samples are written into a preallocated slice at a cursor that wraps modulo
// the capacity. Once the ring is full every Append overwrites the oldest
// sample, so insertion order is the only eviction criterion.
//
// Window is safe for concurrent use. Readers always observe whole samples:
// an Append is either fully visible to a read or not visible at all.
type Window struct {
	samples []model.Sample
	next    int
	size    int
	mu      sync.RWMutex
}

// NewWindow creates a window holding at most capacity samples.
// A non-positive capacity falls back to DefaultWindowSize.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &Window{
		samples: make([]model.Sample, capacity),
	}
}

// Append stores s, evicting the oldest sample when the window is full.
func (w *Window) Append(s model.Sample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples[w.next] = s
	w.next = (w.next + 1) % len(w.samples)
	if w.size < len(w.samples) {
		w.size++
	}
}

// Len returns the number of samples currently held.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.size
}

// Cap returns the fixed capacity of the window.
func (w *Window) Cap() int {
	return len(w.samples)
}

// Snapshot returns a copy of the held samples, oldest first.
func (w *Window) Snapshot() []model.Sample {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]model.Sample, 0, w.size)
	w.each(func(s *model.Sample) {
		out = append(out, *s)
	})
	return out
}

// Latencies appends the latency of every held sample to dst (oldest first)
// and counts error samples, both under a single read lock so the two results
// describe the same set of samples.
func (w *Window) Latencies(dst []float64) ([]float64, int) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	errorCount := 0
	w.each(func(s *model.Sample) {
		dst = append(dst, s.LatencyMs)
		if s.IsError() {
			errorCount++
		}
	})
	return dst, errorCount
}

// each visits held samples oldest first. Caller must hold mu.
func (w *Window) each(fn func(s *model.Sample)) {
	start := 0
	if w.size == len(w.samples) {
		start = w.next
	}
	for i := range w.size {
		fn(&w.samples[(start+i)%len(w.samples)])
	}
}
