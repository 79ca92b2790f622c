package control

import (
	"fmt"
	"sync/atomic"
)

// Ring is a bounded single-producer single-consumer queue. One goroutine
// calls Push, one goroutine calls TryPop; under that contract neither
// side locks, blocks, or allocates, which is what lets the render
// callback drain commands inside its deadline.
//
// Values move through a preallocated buffer in FIFO order. A full ring
// rejects Push rather than overwrite, an empty ring rejects TryPop
// rather than wait.
type Ring[T any] struct {
	buf  []T
	mask uint64

	head atomic.Uint64
	tail atomic.Uint64
}

// NewRing creates a ring holding at least capacity values. The internal
// size rounds up to the next power of two.
func NewRing[T any](capacity int) (*Ring[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ring capacity must be > 0: %d", capacity)
	}

	size := 1
	for size < capacity {
		size *= 2
	}

	return &Ring[T]{
		buf:  make([]T, size),
		mask: uint64(size - 1),
	}, nil
}

// Push appends v and reports whether there was room. Producer side only.
func (r *Ring[T]) Push(v T) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() >= uint64(len(r.buf)) {
		return false
	}

	r.buf[tail&r.mask] = v
	r.tail.Store(tail + 1)

	return true
}

// TryPop removes the oldest value and reports whether one was present.
// Consumer side only.
func (r *Ring[T]) TryPop() (T, bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		var zero T
		return zero, false
	}

	v := r.buf[head&r.mask]
	r.head.Store(head + 1)

	return v, true
}

// Len returns the number of queued values.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}
