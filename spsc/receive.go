// SPDX-License-Identifier: Apache-2.0

package spsc

import (
	"github.com/sprocket-fw/cassette/task"
)

var _ task.Future[int] = (*Receive[int])(nil)

// Receive adapts a Consumer to a task.Future: each Poll attempts exactly one
// Dequeue, and is Ready with the dequeued value, or Pending if the queue is
// empty.
//
// A Receive is reusable. After it reports Ready, the next Poll waits for the
// next value.
type Receive[T any] struct {
	c *Consumer[T]
}

// NewReceive returns a Receive over c. The Receive takes over the consumer
// role: c must not be used by anything else.
func NewReceive[T any](c *Consumer[T]) *Receive[T] {
	return &Receive[T]{c: c}
}

// Poll implements task.Future.
func (r *Receive[T]) Poll() (T, bool) {
	return r.c.Dequeue()
}

// Await suspends the enclosing coroutine until a value is available, and
// returns it.
func (r *Receive[T]) Await(co *task.Co) T {
	return task.Await[T](co, r)
}
