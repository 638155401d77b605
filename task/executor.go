// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// Executor steps tasks on behalf of a driver. It holds no tasks itself: the
// driver decides which handle to step, and when.
//
// A single Executor may be shared by every driver in the program.
type Executor struct {
	logger    *logiface.Logger[logiface.Event]
	steps     atomic.Uint64
	completed atomic.Uint64
}

// ExecutorOption represents a configuration option for an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the logger used to report steps and completions.
// A nil logger disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an Executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Steps returns the number of steps taken so far.
func (e *Executor) Steps() uint64 {
	return e.steps.Load()
}

// Completed returns the number of tasks that have reported Ready.
func (e *Executor) Completed() uint64 {
	return e.completed.Load()
}

// Step advances the task behind h exactly once and returns the outcome of
// that step. It never blocks.
//
// Stepping a task that has already reported Ready is a programming error, and
// panics with an error wrapping [ErrCompleted]. So does stepping a task that
// another driver is stepping at the same moment ([ErrConcurrentStep]).
// A panic raised by the task itself propagates to the caller.
func Step[O any](e *Executor, h Handle[O]) (O, bool) {
	p := h.p
	if p == nil {
		panic("task: step of zero handle")
	}

	if p.done.Load() {
		e.logger.Crit().
			Uint64("task", p.id).
			Log("step of completed task")
		panic(fmt.Errorf("%w: id %d", ErrCompleted, p.id))
	}
	if !p.busy.CompareAndSwap(false, true) {
		panic(fmt.Errorf("%w: id %d", ErrConcurrentStep, p.id))
	}
	defer p.busy.Store(false)

	out, ready := p.fut.Poll()
	step := e.steps.Add(1)

	if !ready {
		e.logger.Trace().
			Uint64("task", p.id).
			Uint64("step", step).
			Log("task pending")
		return out, false
	}

	p.done.Store(true)
	e.completed.Add(1)
	e.logger.Debug().
		Uint64("task", p.id).
		Uint64("step", step).
		Log("task finished")
	return out, true
}
