// SPDX-License-Identifier: Apache-2.0

package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
)

var (
	// ErrAlreadyBound is returned when binding a line that has a handler.
	ErrAlreadyBound = errors.New("board: line already bound")

	// ErrForeignLine is returned when binding a line owned by another
	// controller.
	ErrForeignLine = errors.New("board: line belongs to another controller")

	// ErrRunning is returned when binding after Run has started.
	ErrRunning = errors.New("board: controller is running")
)

// Line is an interrupt line. Raising it marks it pending; a handler bound
// with Controller.Bind must clear it with Unpend, as on hardware, or it is
// dispatched again.
type Line struct {
	name    string
	ctrl    *Controller
	pending atomic.Bool
	raised  atomic.Uint64
}

// Name returns the name the line was created with.
func (l *Line) Name() string {
	return l.name
}

// Raise marks the line pending and wakes its controller. It may be called
// from any goroutine, and never blocks.
func (l *Line) Raise() {
	l.raised.Add(1)
	l.pending.Store(true)
	l.ctrl.wakeup()
}

// Pending reports whether the line is waiting to be handled.
func (l *Line) Pending() bool {
	return l.pending.Load()
}

// Unpend clears the pending state of the line.
func (l *Line) Unpend() {
	l.pending.Store(false)
}

// Raised returns the number of times Raise has been called.
func (l *Line) Raised() uint64 {
	return l.raised.Load()
}

// RaiseEvery raises l once per period until ctx is done, and returns
// ctx.Err(). It models the compare interrupt of a periodic timer peripheral.
func RaiseEvery(ctx context.Context, l *Line, period time.Duration) error {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			l.Raise()
		}
	}
}

// Handler services an interrupt line. It runs in interrupt context: on the
// controller's goroutine, never concurrently with another handler of the
// same controller, and it must not block.
type Handler func(l *Line)

type binding struct {
	line    *Line
	handler Handler
}

// Controller dispatches pending lines to their handlers, one at a time, in
// the order the lines were bound. It models a single interrupt context.
type Controller struct {
	logger *logiface.Logger[logiface.Event]
	wake   chan struct{}

	mu       sync.Mutex
	bindings []binding
	running  bool
}

// ControllerOption represents a configuration option for a Controller.
type ControllerOption func(*Controller)

// WithControllerLogger sets the logger used to trace dispatches.
func WithControllerLogger(logger *logiface.Logger[logiface.Event]) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a Controller with no lines.
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{wake: make(chan struct{}, 1)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Line creates a new, unbound line owned by c.
func (c *Controller) Line(name string) *Line {
	return &Line{name: name, ctrl: c}
}

// Bind attaches h to l. Lines must be bound before Run is called.
func (c *Controller) Bind(l *Line, h Handler) error {
	if l.ctrl != c {
		return fmt.Errorf("%w: %s", ErrForeignLine, l.name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrRunning
	}
	for _, b := range c.bindings {
		if b.line == l {
			return fmt.Errorf("%w: %s", ErrAlreadyBound, l.name)
		}
	}
	c.bindings = append(c.bindings, binding{line: l, handler: h})
	return nil
}

// Dispatch runs the handler of every pending line once, and returns the
// number of handlers run. It must not be called concurrently with Run.
func (c *Controller) Dispatch() int {
	c.mu.Lock()
	bindings := c.bindings
	c.mu.Unlock()

	var n int
	for _, b := range bindings {
		if !b.line.Pending() {
			continue
		}
		c.logger.Trace().
			Str("line", b.line.name).
			Log("dispatch")
		b.handler(b.line)
		n++
	}
	return n
}

// Run services interrupts until ctx is done, and returns ctx.Err().
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrRunning
	}
	c.running = true
	c.mu.Unlock()

	c.logger.Debug().
		Int("lines", len(c.bindings)).
		Log("interrupt controller running")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wake:
		}
		c.Dispatch()
		if c.anyPending() {
			// a handler left its line pending, or a line was raised mid-pass
			c.wakeup()
		}
	}
}

func (c *Controller) anyPending() bool {
	for _, b := range c.bindings {
		if b.line.Pending() {
			return true
		}
	}
	return false
}

func (c *Controller) wakeup() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}
