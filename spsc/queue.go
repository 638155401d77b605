// SPDX-License-Identifier: Apache-2.0

// Package spsc provides a bounded, lock-free, single-producer/single-consumer
// queue for handing values from one execution context to another, for
// example from an interrupt handler to the idle loop.
//
// A queue is created once and split into a [Producer] and a [Consumer].
// Each role must be owned by exactly one context. Neither operation blocks:
// Enqueue on a full queue and Dequeue on an empty one return immediately.
package spsc

import (
	"sync/atomic"

	"github.com/sprocket-fw/cassette/arena"
)

// ring is the storage shared by both roles.
type ring[T any] struct {
	// 64-bit monotonic counters. Producer owns w; consumer owns r.
	w atomic.Uint64 // next write position
	r atomic.Uint64 // next read position

	buf []T
	cap uint64
}

// noCopy may be embedded into structs which must not be copied after first
// use. See go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Producer is the write role of a queue.
type Producer[T any] struct {
	_ noCopy
	q *ring[T]
}

// Consumer is the read role of a queue.
type Consumer[T any] struct {
	_ noCopy
	q *ring[T]
}

// New returns the two roles of a queue that holds at most capacity values.
// It returns ErrInvalidCapacity if capacity <= 0.
func New[T any](capacity int) (*Producer[T], *Consumer[T], error) {
	return NewIn[T](nil, capacity)
}

// NewIn is like New, but the ring and its storage are charged against a,
// with the storage placed in the arena region when T holds no pointers.
// If a is nil, NewIn behaves like New.
func NewIn[T any](a arena.Arena, capacity int) (*Producer[T], *Consumer[T], error) {
	if capacity <= 0 {
		return nil, nil, ErrInvalidCapacity
	}

	q, err := arena.New(a, ring[T]{})
	if err != nil {
		return nil, nil, err
	}
	buf, err := arena.AllocateSlice[T](a, capacity, capacity)
	if err != nil {
		return nil, nil, err
	}
	q.buf = buf
	q.cap = uint64(capacity)

	return &Producer[T]{q: q}, &Consumer[T]{q: q}, nil
}

// Enqueue appends v to the queue. If the queue is full, Enqueue returns a
// *QueueFullError carrying v, and the queue is left unchanged.
func (p *Producer[T]) Enqueue(v T) error {
	q := p.q
	w := q.w.Load()
	if w-q.r.Load() >= q.cap {
		return &QueueFullError[T]{Value: v, Capacity: int(q.cap)}
	}
	q.buf[w%q.cap] = v
	// publish: the slot write above happens before the consumer observes w+1
	q.w.Store(w + 1)
	return nil
}

// Len returns the number of values in the queue. The result may already be
// stale when the consumer is running concurrently.
func (p *Producer[T]) Len() int {
	return p.q.len()
}

// Cap returns the capacity of the queue.
func (p *Producer[T]) Cap() int {
	return int(p.q.cap)
}

// Dequeue removes and returns the oldest value in the queue. It returns the
// zero value and false if the queue is empty.
func (c *Consumer[T]) Dequeue() (T, bool) {
	q := c.q
	r := q.r.Load()
	if r == q.w.Load() {
		var zero T
		return zero, false
	}
	slot := r % q.cap
	v := q.buf[slot]
	var zero T
	q.buf[slot] = zero // release references held by the slot
	q.r.Store(r + 1)
	return v, true
}

// Len returns the number of values in the queue. The result may already be
// stale when the producer is running concurrently.
func (c *Consumer[T]) Len() int {
	return c.q.len()
}

// Cap returns the capacity of the queue.
func (c *Consumer[T]) Cap() int {
	return int(c.q.cap)
}

func (q *ring[T]) len() int {
	r := q.r.Load()
	w := q.w.Load()
	return int(w - r)
}
