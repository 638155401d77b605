// SPDX-License-Identifier: Apache-2.0

package app

import (
	"errors"
	"sync/atomic"
	"time"

	catrate "github.com/joeycumines/go-catrate"

	"github.com/sprocket-fw/cassette/internal/board"
	"github.com/sprocket-fw/cassette/internal/logging"
	"github.com/sprocket-fw/cassette/spsc"
	"github.com/sprocket-fw/cassette/task"
)

type limitCategory int

const (
	categoryQueueFull limitCategory = iota
)

// queueFullRates bounds the warnings a congested queue can produce.
var queueFullRates = map[time.Duration]int{
	time.Second: 1,
	time.Minute: 10,
}

// Sender produces a counting sequence, two values per step, starting at 1.
//
// When the queue is full the newest value is dropped: the producer never
// waits, and never overwrites what the consumer has yet to see.
type Sender struct {
	tx      *spsc.Producer[uint32]
	limiter *catrate.Limiter
	logger  *logging.Logger
	next    uint32
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Entry returns the task body. It never completes.
func (s *Sender) Entry() task.Future[struct{}] {
	return task.Coroutine(func(co *task.Co) struct{} {
		for {
			s.send(s.next)
			s.send(s.next + 1)
			s.next += 2
			co.Yield()
		}
	})
}

func (s *Sender) send(v uint32) {
	err := s.tx.Enqueue(v)
	if err == nil {
		s.sent.Add(1)
		return
	}

	dropped := s.dropped.Add(1)

	var full *spsc.QueueFullError[uint32]
	if !errors.As(err, &full) {
		s.logger.Err().Err(err).Log("enqueue failed")
		return
	}
	if _, ok := s.limiter.Allow(categoryQueueFull); !ok {
		return
	}
	s.logger.Warning().
		Uint64("value", uint64(full.Value)).
		Int("capacity", full.Capacity).
		Uint64("dropped", dropped).
		Log("queue full, value dropped")
}

// Sent returns the number of values enqueued.
func (s *Sender) Sent() uint64 { return s.sent.Load() }

// Dropped returns the number of values rejected by a full queue.
func (s *Sender) Dropped() uint64 { return s.dropped.Load() }

// Painter lights the first LitCount(v) LEDs of the strip for every value v
// it receives, one value per step.
type Painter struct {
	rx       *spsc.Receive[uint32]
	strip    *board.Strip
	colors   []board.RGB8
	logger   *logging.Logger
	received atomic.Uint64
	last     atomic.Uint32
	observe  func(v uint32)
}

// Entry returns the task body. It never completes.
func (p *Painter) Entry() task.Future[struct{}] {
	return task.Coroutine(func(co *task.Co) struct{} {
		for {
			v := p.rx.Await(co)
			p.paint(v)
			co.Yield()
		}
	})
}

func (p *Painter) paint(v uint32) {
	p.received.Add(1)
	p.last.Store(v)
	if p.observe != nil {
		p.observe(v)
	}

	lit := min(LitCount(v), len(p.colors))
	for i := range p.colors {
		if i < lit {
			p.colors[i] = board.White
		} else {
			p.colors[i] = board.Black
		}
	}
	if err := p.strip.Write(p.colors); err != nil {
		p.logger.Err().
			Err(err).
			Uint64("value", uint64(v)).
			Log("strip write failed")
	}
}

// Received returns the number of values painted.
func (p *Painter) Received() uint64 { return p.received.Load() }

// Last returns the most recent value painted, or 0.
func (p *Painter) Last() uint32 { return p.last.Load() }

// LitCount returns the number of LEDs lit for value v: half of v, rounded
// up.
func LitCount(v uint32) int {
	return int(v/2 + v%2)
}
