// SPDX-License-Identifier: Apache-2.0

package board

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sprocket-fw/cassette/arena"
)

func TestManualTimer(t *testing.T) {
	timer := NewManualTimer(0)
	require.Equal(t, uint32(DefaultTicksPerSecond), timer.TicksPerSecond())

	start := timer.Ticks()
	timer.AdvanceMillis(10)
	require.Equal(t, uint32(10_000), TicksSince(timer, start))
	require.Equal(t, uint32(10), MillisSince(timer, start))
}

func TestTimerWrap(t *testing.T) {
	timer := NewManualTimer(1000)
	timer.Set(math.MaxUint32 - 4)

	start := timer.Ticks()
	timer.Advance(20)
	require.Equal(t, uint32(15), timer.Ticks())
	require.Equal(t, uint32(20), TicksSince(timer, start))
	require.Equal(t, uint32(20), MillisSince(timer, start))
}

func TestClockTimer(t *testing.T) {
	timer := NewClockTimer(1000)
	start := timer.Ticks()
	time.Sleep(20 * time.Millisecond)
	require.GreaterOrEqual(t, MillisSince(timer, start), uint32(15))
}

func TestPin(t *testing.T) {
	p := NewPin("led1", true)
	require.True(t, p.IsHigh())
	require.Equal(t, "led1", p.Name())

	p.SetHigh() // no change
	require.Zero(t, p.Transitions())

	p.SetLow()
	require.False(t, p.IsHigh())
	p.Toggle()
	require.True(t, p.IsHigh())
	require.Equal(t, uint64(2), p.Transitions())
}

func TestStripWrite(t *testing.T) {
	a := arena.NewStaticArena(1024)
	var sink bytes.Buffer

	s, err := NewStrip(a, 4, &sink)
	require.NoError(t, err)
	require.Equal(t, 4, s.Len())
	require.Equal(t, 12, a.Len())

	colors := []RGB8{White, {R: 1, G: 2, B: 3}}
	require.NoError(t, s.Write(colors))
	require.Equal(t, []byte{0xff, 0xff, 0xff, 2, 1, 3}, sink.Bytes())
	require.Equal(t, colors, DecodeFrame(sink.Bytes()))
	require.Equal(t, uint64(1), s.Frames())

	// frames never charge the arena again
	require.NoError(t, s.Write([]RGB8{Black, Black, Black, Black}))
	require.Equal(t, 12, a.Len())
	require.Equal(t, uint64(2), s.Frames())

	err = s.Write(make([]RGB8, 5))
	require.ErrorIs(t, err, ErrStripOverflow)
}

func TestStripErrors(t *testing.T) {
	_, err := NewStrip(nil, 0, nil)
	require.Error(t, err)

	_, err = NewStrip(arena.NewStaticArena(8), 4, nil)
	require.ErrorIs(t, err, arena.ErrExhausted)

	boom := errors.New("boom")
	s, err := NewStrip(nil, 2, failingWriter{boom})
	require.NoError(t, err)
	require.ErrorIs(t, s.Write([]RGB8{White}), boom)
	require.Zero(t, s.Frames())
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestControllerDispatch(t *testing.T) {
	c := NewController()
	button := c.Line("button")
	timer := c.Line("timer")

	var order []string
	require.NoError(t, c.Bind(button, func(l *Line) {
		l.Unpend()
		order = append(order, l.Name())
	}))
	require.NoError(t, c.Bind(timer, func(l *Line) {
		l.Unpend()
		order = append(order, l.Name())
	}))

	require.Zero(t, c.Dispatch())

	timer.Raise()
	button.Raise()
	require.True(t, button.Pending())
	require.Equal(t, 2, c.Dispatch())
	require.Equal(t, []string{"button", "timer"}, order)
	require.False(t, button.Pending())
	require.Equal(t, uint64(1), button.Raised())
}

func TestControllerBindErrors(t *testing.T) {
	c := NewController()
	l := c.Line("a")
	require.NoError(t, c.Bind(l, func(*Line) {}))
	require.ErrorIs(t, c.Bind(l, func(*Line) {}), ErrAlreadyBound)

	other := NewController().Line("b")
	require.ErrorIs(t, c.Bind(other, func(*Line) {}), ErrForeignLine)
}

func TestControllerRun(t *testing.T) {
	c := NewController()
	l := c.Line("button")

	var handled atomic.Int64
	require.NoError(t, c.Bind(l, func(l *Line) {
		l.Unpend()
		handled.Add(1)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	for i := int64(1); i <= 3; i++ {
		l.Raise()
		require.Eventually(t, func() bool { return handled.Load() == i }, time.Second, time.Millisecond)
	}

	require.ErrorIs(t, c.Bind(c.Line("late"), func(*Line) {}), ErrRunning)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestControllerRedispatchesPendingLine(t *testing.T) {
	c := NewController()
	l := c.Line("sticky")

	var calls atomic.Int64
	require.NoError(t, c.Bind(l, func(l *Line) {
		// only acknowledged on the third entry
		if calls.Add(1) == 3 {
			l.Unpend()
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	l.Raise()
	require.Eventually(t, func() bool { return !l.Pending() }, time.Second, time.Millisecond)
	require.Equal(t, int64(3), calls.Load())

	cancel()
	<-done
}

func TestRaiseEvery(t *testing.T) {
	c := NewController()
	l := c.Line("tim2")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RaiseEvery(ctx, l, time.Millisecond) }()

	require.Eventually(t, func() bool { return l.Raised() >= 3 }, time.Second, time.Millisecond)
	require.True(t, l.Pending())

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
