package service

import (
	"maps"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/idudko/storefront-latency/internal/model"
	"github.com/idudko/storefront-latency/internal/repository"
	"github.com/idudko/storefront-latency/pkg/percentile"
	"github.com/idudko/storefront-latency/pkg/pool"
)

// Percentiles reported by Summarize, in Summary field order.
const (
	P50 = 0.50
	P95 = 0.95
	P99 = 0.99
)

// Emitter receives a copy of every recorded sample. Implementations must not
// block: Emit is called on the request path.
type Emitter interface {
	Emit(sample model.Sample)
}

// Recorder keeps a bounded rolling record of request outcomes and answers
// aggregate queries over it.
//
// A Recorder is created once at startup and passed to every component that
// records or reads samples. All methods are safe for concurrent use.
type Recorder struct {
	window  *repository.Window
	emitter Emitter
	buffers *pool.Pool[*pool.Floats]
	now     func() time.Time
}

// NewRecorder creates a Recorder over window. emitter may be nil.
func NewRecorder(window *repository.Window, emitter Emitter) *Recorder {
	return &Recorder{
		window:  window,
		emitter: emitter,
		buffers: pool.NewFloats(window.Cap()),
		now:     time.Now,
	}
}

// Record validates s and appends it to the window, evicting the oldest sample
// when the window is full. The sample is then handed to the emitter.
// Params is copied, so the caller keeps ownership of its map.
//
// A negative (or NaN) latency or a status code outside 100-599 yields an
// *InvalidSampleError and the sample is not recorded. Emission problems are
// never reported to the caller.
func (r *Recorder) Record(s model.Sample) error {
	if err := validate(s); err != nil {
		return err
	}
	if s.TimestampMs == 0 {
		s.TimestampMs = r.now().UnixMilli()
	}
	s.Params = maps.Clone(s.Params)

	r.window.Append(s)
	r.emit(s)
	return nil
}

// Summarize computes count, error count and nearest-rank p50/p95/p99 over the
// samples held at the time of the call. An empty window gives a zero Summary.
func (r *Recorder) Summarize() model.Summary {
	buf := r.buffers.Get()
	defer r.buffers.Put(buf)

	var errorCount int
	buf.Values, errorCount = r.window.Latencies(buf.Values)
	if len(buf.Values) == 0 {
		return model.Summary{}
	}

	ps := percentile.Sorted(buf.Values, P50, P95, P99)
	return model.Summary{
		Count:        len(buf.Values),
		ErrorCount:   errorCount,
		P50LatencyMs: ps[0],
		P95LatencyMs: ps[1],
		P99LatencyMs: ps[2],
	}
}

// Samples returns the held samples, oldest first.
func (r *Recorder) Samples() []model.Sample {
	return r.window.Snapshot()
}

// Len returns the number of samples currently held.
func (r *Recorder) Len() int {
	return r.window.Len()
}

// Capacity returns the maximum number of samples retained.
func (r *Recorder) Capacity() int {
	return r.window.Cap()
}

func (r *Recorder) emit(s model.Sample) {
	if r.emitter == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("endpoint", s.Endpoint).Msg("sample emitter panicked")
		}
	}()
	r.emitter.Emit(s)
}

func validate(s model.Sample) error {
	if s.LatencyMs < 0 || math.IsNaN(s.LatencyMs) {
		return &InvalidSampleError{Field: "latencyMs", Value: s.LatencyMs, Reason: "must be non-negative"}
	}
	if s.StatusCode < model.MinStatusCode || s.StatusCode > model.MaxStatusCode {
		return &InvalidSampleError{Field: "status", Value: s.StatusCode, Reason: "must be between 100 and 599"}
	}
	return nil
}
