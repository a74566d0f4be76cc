// Package ring provides a bounded lock-free single-producer,
// single-consumer queue used for all cross-goroutine communication in
// the streaming engine.
//
// It uses two monotonically increasing atomic counters (writePos,
// readPos) and a power-of-2 sized buffer with bitwise masking. No
// mutexes, no CAS loops, just atomic loads and stores: the producer
// stores writePos after writing a slot, the consumer loads writePos
// before reading it, so the consumer always sees a fully written value.
//
// Thread assignment:
//   - Push + Full: producer goroutine only
//   - Pop: consumer goroutine only
package ring

import "sync/atomic"

// Queue is a bounded SPSC queue of values of type T. Push and Pop are
// non-blocking and never allocate.
type Queue[T any] struct {
	// Separate cache lines to prevent false sharing between producer
	// and consumer. On most architectures a cache line is 64 bytes.
	writePos atomic.Uint64
	_pad1    [56]byte
	readPos  atomic.Uint64
	_pad2    [56]byte

	buf  []T
	mask uint64
}

// New creates a queue with capacity rounded up to the next power of two.
func New[T any](minCap int) *Queue[T] {
	size := 1
	for size < minCap {
		size <<= 1
	}
	return &Queue[T]{
		buf:  make([]T, size),
		mask: uint64(size - 1),
	}
}

// Push appends v to the queue. Returns false if the queue is full.
// Only call from the producer goroutine.
func (q *Queue[T]) Push(v T) bool {
	w := q.writePos.Load()
	r := q.readPos.Load()

	if w-r == uint64(len(q.buf)) {
		return false
	}

	q.buf[w&q.mask] = v
	q.writePos.Store(w + 1)
	return true
}

// Pop removes and returns the oldest value. The second return is false
// if the queue is empty. Only call from the consumer goroutine.
func (q *Queue[T]) Pop() (T, bool) {
	var zero T

	r := q.readPos.Load()
	w := q.writePos.Load()

	if w == r {
		return zero, false
	}

	v := q.buf[r&q.mask]
	// Clear the slot so the queue does not pin buffers that have been
	// handed to the other side.
	q.buf[r&q.mask] = zero
	q.readPos.Store(r + 1)
	return v, true
}

// Full returns true if the queue has no space for another value.
func (q *Queue[T]) Full() bool {
	return q.writePos.Load()-q.readPos.Load() == uint64(len(q.buf))
}

// Len returns the number of values available to pop.
func (q *Queue[T]) Len() int {
	return int(q.writePos.Load() - q.readPos.Load())
}

// Cap returns the queue's fixed capacity.
func (q *Queue[T]) Cap() int {
	return len(q.buf)
}
