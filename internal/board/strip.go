// SPDX-License-Identifier: Apache-2.0

package board

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/sprocket-fw/cassette/arena"
)

// DefaultStripLen is the number of LEDs on the board's strip.
const DefaultStripLen = 120

// ErrStripOverflow is returned when writing more colors than a strip has
// LEDs.
var ErrStripOverflow = errors.New("board: more colors than leds")

// RGB8 is a 24-bit color.
type RGB8 struct {
	R, G, B uint8
}

var (
	Black = RGB8{}
	White = RGB8{R: 0xff, G: 0xff, B: 0xff}
)

// Strip is an addressable LED strip. Each Write serialises one frame, three
// bytes per LED in green, red, blue order, into a buffer carved from an
// arena once, and copies it to the sink.
type Strip struct {
	leds   int
	frame  *arena.Buffer
	sink   io.Writer
	frames atomic.Uint64
}

// NewStrip returns a strip of n LEDs writing frames to sink. The frame
// buffer is allocated from a.
func NewStrip(a arena.Arena, n int, sink io.Writer) (*Strip, error) {
	if n <= 0 {
		return nil, fmt.Errorf("board: invalid strip length %d", n)
	}
	frame, err := arena.NewBuffer(a, 3*n)
	if err != nil {
		return nil, fmt.Errorf("board: strip frame: %w", err)
	}
	if sink == nil {
		sink = io.Discard
	}
	return &Strip{leds: n, frame: frame, sink: sink}, nil
}

// Len returns the number of LEDs.
func (s *Strip) Len() int {
	return s.leds
}

// Frames returns the number of frames written.
func (s *Strip) Frames() uint64 {
	return s.frames.Load()
}

// Write sends colors to the strip, starting at the first LED. LEDs past
// len(colors) keep their previous color.
func (s *Strip) Write(colors []RGB8) error {
	if len(colors) > s.leds {
		return fmt.Errorf("%w: %d > %d", ErrStripOverflow, len(colors), s.leds)
	}
	s.frame.Reset()
	for _, c := range colors {
		for _, b := range [3]byte{c.G, c.R, c.B} {
			if err := s.frame.WriteByte(b); err != nil {
				return err
			}
		}
	}
	if _, err := s.frame.WriteTo(s.sink); err != nil {
		s.frame.Reset()
		return fmt.Errorf("board: strip write: %w", err)
	}
	s.frames.Add(1)
	return nil
}

// DecodeFrame parses a frame produced by Strip.Write.
func DecodeFrame(frame []byte) []RGB8 {
	colors := make([]RGB8, len(frame)/3)
	for i := range colors {
		colors[i] = RGB8{G: frame[3*i], R: frame[3*i+1], B: frame[3*i+2]}
	}
	return colors
}
