// SPDX-License-Identifier: Apache-2.0

package spsc

import (
	"errors"
	"fmt"
)

var (
	// ErrFull is wrapped by every QueueFullError.
	ErrFull = errors.New("spsc: queue full")

	// ErrInvalidCapacity indicates a non-positive queue capacity.
	ErrInvalidCapacity = errors.New("spsc: capacity must be positive")
)

// QueueFullError is returned by Producer.Enqueue when the queue is at
// capacity. The rejected value is handed back, so the producer can decide
// what to do with it.
type QueueFullError[T any] struct {
	Value    T
	Capacity int
}

func (e *QueueFullError[T]) Error() string {
	return fmt.Sprintf("spsc: queue full: capacity %d", e.Capacity)
}

func (e *QueueFullError[T]) Unwrap() error {
	return ErrFull
}
