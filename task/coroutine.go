// SPDX-License-Identifier: Apache-2.0

package task

import (
	"errors"
	"iter"
)

// ErrAborted is the panic value of a Poll on a coroutine whose body
// previously panicked.
var ErrAborted = errors.New("task: coroutine aborted by an earlier panic")

// Co is the suspension point of a body run by [Coroutine].
type Co struct {
	yield func(struct{}) bool
}

// Yield suspends the body. The current step reports Pending, and the next
// step resumes execution immediately after the call.
func (co *Co) Yield() {
	// the pull iterator is never stopped, so yield always resumes
	co.yield(struct{}{})
}

type coroutine[O any] struct {
	body     func(co *Co) O
	next     func() (struct{}, bool)
	out      O
	returned bool
	done     bool
}

// Coroutine returns a Future that runs body, one segment per Poll.
//
// A segment runs until the body calls [Co.Yield] or returns, so a body that
// yields k times completes on step k+1. The body does not start until the
// first Poll.
//
// Caveat: each coroutine is backed by the runtime's coroutine switch (see
// [iter.Pull]). A body that never returns keeps its stack for the remainder of
// the program, which matches the lifetime of a spawned task.
func Coroutine[O any](body func(co *Co) O) Future[O] {
	return &coroutine[O]{body: body}
}

func (c *coroutine[O]) Poll() (O, bool) {
	if c.done {
		return c.out, true
	}
	if c.next == nil {
		c.next, _ = iter.Pull(c.seq)
	}
	if _, pending := c.next(); pending {
		var zero O
		return zero, false
	}
	if !c.returned {
		// the body panicked on an earlier step and the panic was recovered
		panic(ErrAborted)
	}
	c.done = true
	return c.out, true
}

func (c *coroutine[O]) seq(yield func(struct{}) bool) {
	c.out = c.body(&Co{yield: yield})
	c.returned = true
}

// Await polls f until it is Ready, yielding between attempts, and returns its
// output. Each attempt happens on a separate step of the enclosing coroutine.
func Await[O any](co *Co, f Future[O]) O {
	for {
		if v, ok := f.Poll(); ok {
			return v
		}
		co.Yield()
	}
}
