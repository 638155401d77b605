// SPDX-License-Identifier: Apache-2.0

package task

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/sprocket-fw/cassette/arena"
)

var (
	// ErrCompleted is the panic value (wrapped) of a Step on a handle that
	// has already reported Ready.
	ErrCompleted = errors.New("task: step of completed task")

	// ErrConcurrentStep is the panic value (wrapped) of a Step on a handle
	// that is being stepped by another driver.
	ErrConcurrentStep = errors.New("task: concurrent step")

	// ErrNilFuture is returned by Spawn when entry returns nil, including a
	// typed nil such as a nil pointer.
	ErrNilFuture = errors.New("task: entry returned nil future")
)

var lastID atomic.Uint64

// pinned is the arena-resident slot of a spawned task. It is never moved or
// copied once allocated; handles refer to it by address.
type pinned[O any] struct {
	fut  Future[O]
	id   uint64
	busy atomic.Bool
	done atomic.Bool
}

// Handle is a type-erased reference to a spawned computation.
//
// A Handle is a single pointer wide. Copying it never moves the computation,
// but a handle must still be owned by exactly one driver: stepping the same
// task from two places at once panics.
type Handle[O any] struct {
	p *pinned[O]
}

// ID returns a process-unique, non-zero identifier of the task, or 0 for the
// zero Handle.
func (h Handle[O]) ID() uint64 {
	if h.p == nil {
		return 0
	}
	return h.p.id
}

// Done reports whether the task has reported Ready.
func (h Handle[O]) Done() bool {
	return h.p != nil && h.p.done.Load()
}

// Spawn allocates a task and returns a handle to it.
//
// The data is moved into a, entry is called with the resulting static
// reference to build the computation, and the computation's state is then
// charged against a and pinned. The footprint of the computation is the size
// of the value its Future refers to, as reported by reflection.
//
// Spawn returns an error wrapping [arena.ErrExhausted] (or [arena.ErrSealed])
// if any allocation fails. It is intended to be called during boot only.
func Spawn[T, O any](a arena.Arena, data T, entry func(*T) Future[O]) (Handle[O], error) {
	ref, err := arena.New(a, data)
	if err != nil {
		return Handle[O]{}, fmt.Errorf("task: allocate %T: %w", data, err)
	}

	fut := entry(ref)
	if isNil(fut) {
		return Handle[O]{}, ErrNilFuture
	}

	if a != nil {
		size, align := footprint(fut)
		if _, err := a.Alloc(size, align); err != nil {
			return Handle[O]{}, fmt.Errorf("task: allocate %T: %w", fut, err)
		}
	}

	p, err := arena.New(a, pinned[O]{fut: fut, id: lastID.Add(1)})
	if err != nil {
		return Handle[O]{}, fmt.Errorf("task: pin: %w", err)
	}

	return Handle[O]{p: p}, nil
}

// isNil reports whether fut is nil, or a nil value of a nillable type.
func isNil(fut any) bool {
	if fut == nil {
		return true
	}
	switch v := reflect.ValueOf(fut); v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// footprint returns the size and alignment of the state behind fut.
func footprint(fut any) (uintptr, uintptr) {
	t := reflect.TypeOf(fut)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Size(), uintptr(t.Align())
}
