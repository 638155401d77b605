// SPDX-License-Identifier: Apache-2.0

// Package app wires the sample tasks to the simulated board: a button that
// steps a blinking task from interrupt context, and a periodic timer
// interrupt that feeds values through a queue to an LED painter stepped by
// the idle loop.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	catrate "github.com/joeycumines/go-catrate"

	"github.com/sprocket-fw/cassette/arena"
	"github.com/sprocket-fw/cassette/internal/board"
	"github.com/sprocket-fw/cassette/internal/logging"
	"github.com/sprocket-fw/cassette/spsc"
	"github.com/sprocket-fw/cassette/task"
)

// System is a booted board: every task spawned, the arena sealed, and the
// interrupt lines bound.
type System struct {
	Arena      *arena.BootArena
	Executor   *task.Executor
	Controller *board.Controller
	Timer      board.Timer

	// Button steps the stepdown task; Tick steps the sender.
	Button *board.Line
	Tick   *board.Line

	LED   *board.Pin
	Strip *board.Strip

	stepdown task.Handle[struct{}]
	sender   task.Handle[struct{}]
	painter  task.Handle[struct{}]

	senderData  *Sender
	painterData *Painter

	paintPeriod uint32 // milliseconds
	lastPaint   uint32 // ticks

	logger   *logging.Logger
	finished chan struct{}
	once     sync.Once
}

// Boot runs the boot sequence. Every allocation the system will ever make
// happens here; the arena is sealed before Boot returns.
//
// An error wrapping arena.ErrExhausted means the arena is too small for the
// configuration, and the system must not start.
func Boot(opts ...Option) (*System, error) {
	c := newConfig(opts)

	var static arena.Arena
	if c.region != nil {
		static = arena.NewStaticArena(c.arenaCapacity, arena.WithRegion(c.region))
	} else {
		static = arena.NewStaticArena(c.arenaCapacity)
	}

	s := &System{
		Arena:       arena.NewBootArena(static),
		Executor:    task.NewExecutor(task.WithLogger(logging.Component(c.logger, "executor"))),
		Controller:  board.NewController(board.WithControllerLogger(logging.Component(c.logger, "interrupt"))),
		Timer:       c.timer,
		LED:         board.NewPin("led1", true, board.WithPinLogger(logging.Component(c.logger, "pin"))),
		paintPeriod: uint32(c.paintPeriod / time.Millisecond),
		logger:      c.logger,
		finished:    make(chan struct{}),
	}

	var err error
	if s.Strip, err = board.NewStrip(s.Arena, c.stripLen, c.stripSink); err != nil {
		return nil, fmt.Errorf("app: boot: %w", err)
	}

	if s.stepdown, err = task.Spawn(s.Arena, StepdownButton{
		Count: c.stepdownCount,
		LED:   s.LED,
	}, (*StepdownButton).Entry); err != nil {
		return nil, fmt.Errorf("app: boot: spawn stepdown: %w", err)
	}

	tx, rx, err := spsc.NewIn[uint32](s.Arena, c.queueCapacity)
	if err != nil {
		return nil, fmt.Errorf("app: boot: queue: %w", err)
	}

	if s.sender, err = task.Spawn(s.Arena, Sender{
		tx:      tx,
		limiter: catrate.NewLimiter(queueFullRates),
		logger:  logging.Component(c.logger, "sender"),
		next:    1,
	}, func(d *Sender) task.Future[struct{}] {
		s.senderData = d
		return d.Entry()
	}); err != nil {
		return nil, fmt.Errorf("app: boot: spawn sender: %w", err)
	}

	colors, err := arena.AllocateSlice[board.RGB8](s.Arena, s.Strip.Len(), s.Strip.Len())
	if err != nil {
		return nil, fmt.Errorf("app: boot: painter colors: %w", err)
	}
	if s.painter, err = task.Spawn(s.Arena, Painter{
		rx:     spsc.NewReceive(rx),
		strip:  s.Strip,
		colors: colors,
		logger: logging.Component(c.logger, "painter"),
	}, func(d *Painter) task.Future[struct{}] {
		s.painterData = d
		return d.Entry()
	}); err != nil {
		return nil, fmt.Errorf("app: boot: spawn painter: %w", err)
	}

	s.Arena.Seal()

	s.Button = s.Controller.Line("button1")
	s.Tick = s.Controller.Line("tim2")
	if err := s.Controller.Bind(s.Button, s.onButton); err != nil {
		return nil, fmt.Errorf("app: boot: %w", err)
	}
	if err := s.Controller.Bind(s.Tick, s.onTick); err != nil {
		return nil, fmt.Errorf("app: boot: %w", err)
	}

	s.lastPaint = s.Timer.Ticks()

	s.logger.Info().
		Int("arena_used", s.Arena.Len()).
		Int("arena_cap", s.Arena.Cap()).
		Int("queue_cap", tx.Cap()).
		Log("boot complete")

	return s, nil
}

// onButton runs in interrupt context.
func (s *System) onButton(l *board.Line) {
	l.Unpend()
	if s.stepdown.Done() {
		// presses after completion are ignored
		return
	}
	if _, ready := task.Step(s.Executor, s.stepdown); ready {
		s.logger.Info().
			Uint64("task", s.stepdown.ID()).
			Log("stepdown task finished")
		s.once.Do(func() { close(s.finished) })
	}
}

// onTick runs in interrupt context.
func (s *System) onTick(l *board.Line) {
	l.Unpend()
	task.Step(s.Executor, s.sender)
}

// PollIdle is one iteration of the idle loop: it steps the painter if the
// paint period has elapsed since the last paint, and reports whether it did.
func (s *System) PollIdle() bool {
	if board.MillisSince(s.Timer, s.lastPaint) < s.paintPeriod {
		return false
	}
	s.lastPaint = s.Timer.Ticks()
	task.Step(s.Executor, s.painter)
	return true
}

// Idle runs the idle loop until ctx is done or the stepdown task finishes.
// It returns nil in the latter case.
func (s *System) Idle(ctx context.Context) error {
	const spin = time.Millisecond

	t := time.NewTicker(spin)
	defer t.Stop()

	for {
		s.PollIdle()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.finished:
			return nil
		case <-t.C:
		}
	}
}

// Finished is closed when the stepdown task completes.
func (s *System) Finished() <-chan struct{} {
	return s.finished
}

// Stats is a snapshot of the system's counters.
type Stats struct {
	Steps     uint64
	Completed uint64
	Sent      uint64
	Dropped   uint64
	Painted   uint64
	LastValue uint32
	Frames    uint64
}

// Stats returns a snapshot of the system's counters.
func (s *System) Stats() Stats {
	return Stats{
		Steps:     s.Executor.Steps(),
		Completed: s.Executor.Completed(),
		Sent:      s.senderData.Sent(),
		Dropped:   s.senderData.Dropped(),
		Painted:   s.painterData.Received(),
		LastValue: s.painterData.Last(),
		Frames:    s.Strip.Frames(),
	}
}
