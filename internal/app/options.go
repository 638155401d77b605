// SPDX-License-Identifier: Apache-2.0

package app

import (
	"io"
	"time"

	"github.com/sprocket-fw/cassette/internal/board"
	"github.com/sprocket-fw/cassette/internal/logging"
)

// Defaults applied by Boot.
const (
	DefaultArenaCapacity = 2048
	DefaultQueueCapacity = 16
	DefaultStepdownCount = 5
	DefaultPaintPeriod   = 10 * time.Millisecond
	DefaultSendPeriod    = 20 * time.Millisecond
)

type config struct {
	arenaCapacity int
	region        []byte
	queueCapacity int
	stepdownCount int
	stripLen      int
	stripSink     io.Writer
	paintPeriod   time.Duration
	logger        *logging.Logger
	timer         board.Timer
}

// Option represents a configuration option for Boot.
type Option func(*config)

// WithArenaCapacity sets the size of the static arena everything is
// allocated from.
func WithArenaCapacity(n int) Option {
	return func(c *config) {
		c.arenaCapacity = n
	}
}

// WithArenaRegion supplies the backing region of the static arena.
func WithArenaRegion(region []byte) Option {
	return func(c *config) {
		c.region = region
	}
}

// WithQueueCapacity sets the capacity of the sender to painter queue.
func WithQueueCapacity(n int) Option {
	return func(c *config) {
		c.queueCapacity = n
	}
}

// WithStepdownCount sets how many times the stepdown task blinks its LED.
func WithStepdownCount(n int) Option {
	return func(c *config) {
		c.stepdownCount = n
	}
}

// WithStrip sets the number of LEDs on the strip, and where its frames go.
func WithStrip(leds int, sink io.Writer) Option {
	return func(c *config) {
		c.stripLen = leds
		c.stripSink = sink
	}
}

// WithPaintPeriod sets how often the idle loop steps the painter.
func WithPaintPeriod(d time.Duration) Option {
	return func(c *config) {
		c.paintPeriod = d
	}
}

// WithLogger sets the root logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithTimer sets the rolling timer used to gate the idle loop.
func WithTimer(t board.Timer) Option {
	return func(c *config) {
		c.timer = t
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		arenaCapacity: DefaultArenaCapacity,
		queueCapacity: DefaultQueueCapacity,
		stepdownCount: DefaultStepdownCount,
		stripLen:      board.DefaultStripLen,
		paintPeriod:   DefaultPaintPeriod,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timer == nil {
		c.timer = board.NewClockTimer(0)
	}
	return c
}
