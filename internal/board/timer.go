// SPDX-License-Identifier: Apache-2.0

// Package board simulates the peripherals of a small microcontroller board
// on the host: a free-running tick timer, interrupt lines, output pins and
// an addressable LED strip.
package board

import (
	"sync/atomic"
	"time"
)

// DefaultTicksPerSecond is the tick rate of the board's rolling timer.
const DefaultTicksPerSecond = 1_000_000

// Timer is a free-running tick counter. The counter wraps at 2^32, so
// durations are only meaningful when measured with TicksSince or MillisSince
// over intervals shorter than one full lap.
type Timer interface {
	Ticks() uint32
	TicksPerSecond() uint32
}

// TicksSince returns the ticks elapsed since start, accounting for wrap.
func TicksSince(t Timer, start uint32) uint32 {
	return t.Ticks() - start
}

// MillisSince returns the milliseconds elapsed since start, accounting for
// wrap.
func MillisSince(t Timer, start uint32) uint32 {
	return uint32(uint64(TicksSince(t, start)) * 1000 / uint64(t.TicksPerSecond()))
}

// ClockTimer is a Timer driven by the host's monotonic clock.
type ClockTimer struct {
	start  time.Time
	period time.Duration
	tps    uint32
}

// NewClockTimer returns a ClockTimer that starts counting now. A zero
// ticksPerSecond selects DefaultTicksPerSecond.
func NewClockTimer(ticksPerSecond uint32) *ClockTimer {
	if ticksPerSecond == 0 {
		ticksPerSecond = DefaultTicksPerSecond
	}
	period := time.Second / time.Duration(ticksPerSecond)
	if period <= 0 {
		period = 1
	}
	return &ClockTimer{
		start:  time.Now(),
		period: period,
		tps:    ticksPerSecond,
	}
}

func (c *ClockTimer) Ticks() uint32 {
	return uint32(time.Since(c.start) / c.period)
}

func (c *ClockTimer) TicksPerSecond() uint32 {
	return c.tps
}

// ManualTimer is a Timer that only moves when told to.
type ManualTimer struct {
	ticks atomic.Uint32
	tps   uint32
}

// NewManualTimer returns a ManualTimer at tick 0. A zero ticksPerSecond
// selects DefaultTicksPerSecond.
func NewManualTimer(ticksPerSecond uint32) *ManualTimer {
	if ticksPerSecond == 0 {
		ticksPerSecond = DefaultTicksPerSecond
	}
	return &ManualTimer{tps: ticksPerSecond}
}

func (m *ManualTimer) Ticks() uint32 {
	return m.ticks.Load()
}

func (m *ManualTimer) TicksPerSecond() uint32 {
	return m.tps
}

// Set moves the counter to ticks.
func (m *ManualTimer) Set(ticks uint32) {
	m.ticks.Store(ticks)
}

// Advance moves the counter forward by n ticks, wrapping at 2^32.
func (m *ManualTimer) Advance(n uint32) {
	m.ticks.Add(n)
}

// AdvanceMillis moves the counter forward by ms milliseconds.
func (m *ManualTimer) AdvanceMillis(ms uint32) {
	m.Advance(uint32(uint64(ms) * uint64(m.tps) / 1000))
}
