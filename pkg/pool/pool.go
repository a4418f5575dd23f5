// Package pool provides typed wrappers around sync.Pool for scratch buffers
// that are reset before reuse.
package pool

import (
	"sync"
)

//go:generate go run ../../cmd/reset

// Resetter is implemented by values that can be returned to a Pool.
type Resetter interface {
	Reset()
}

// Pool is a typed sync.Pool. Values are reset on Put, so Get always hands
// out a clean value.
type Pool[T Resetter] struct {
	pool sync.Pool
}

// New creates a Pool that calls newFunc when no pooled value is available.
func New[T Resetter](newFunc func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any { return newFunc() },
		},
	}
}

// Get retrieves a value from the pool, allocating one if the pool is empty.
func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put resets x and returns it to the pool.
func (p *Pool[T]) Put(x T) {
	x.Reset()
	p.pool.Put(x)
}

// Floats is a reusable float64 scratch buffer, used to copy latencies out of
// the sample window before sorting them.
//
// generate:reset
type Floats struct {
	Values []float64
}

// NewFloats returns a Pool of Floats preallocated to capacity elements.
//
// Example:
//
//	buffers := pool.NewFloats(1000)
//	buf := buffers.Get()
//	buf.Values = append(buf.Values, 12.5, 40)
//	buffers.Put(buf)
func NewFloats(capacity int) *Pool[*Floats] {
	return New(func() *Floats {
		return &Floats{Values: make([]float64, 0, capacity)}
	})
}
