// SPDX-License-Identifier: Apache-2.0

// Command sprocket boots the simulated board and runs it until the stepdown
// task finishes or the timeout elapses.
//
// The button is pressed by a simulated operator every -press interval, the
// timer interrupt fires every -tick, and the idle loop paints the strip.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sprocket-fw/cassette/internal/app"
	"github.com/sprocket-fw/cassette/internal/board"
	"github.com/sprocket-fw/cassette/internal/logging"
)

func main() {
	var (
		arenaCapacity = flag.Int("arena", app.DefaultArenaCapacity, "static arena capacity in bytes")
		queueCapacity = flag.Int("queue", app.DefaultQueueCapacity, "capacity of the sender to painter queue")
		stepdown      = flag.Int("stepdown", app.DefaultStepdownCount, "number of blinks before the stepdown task finishes")
		leds          = flag.Int("leds", board.DefaultStripLen, "number of LEDs on the strip")
		frames        = flag.String("frames", "", "file that receives raw GRB frames (discarded if empty)")
		level         = flag.String("log-level", "info", "log level")
		timeout       = flag.Duration("timeout", 10*time.Second, "stop after this long")
		press         = flag.Duration("press", 250*time.Millisecond, "interval between simulated button presses")
		tick          = flag.Duration("tick", app.DefaultSendPeriod, "period of the timer interrupt that steps the sender")
		paint         = flag.Duration("paint", app.DefaultPaintPeriod, "period of the painter in the idle loop")
	)
	flag.Parse()

	lvl, err := logging.ParseLevel(*level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.New(os.Stderr, lvl)

	var sink io.Writer
	closeSink := func() {}
	if *frames != "" {
		f, err := os.Create(*frames)
		if err != nil {
			logger.Crit().Err(err).Str("path", *frames).Log("open frames file")
			os.Exit(1)
		}
		sink = f
		closeSink = func() {
			if err := f.Close(); err != nil {
				logger.Err().Err(err).Str("path", *frames).Log("close frames file")
			}
		}
	}

	s, err := app.Boot(
		app.WithArenaCapacity(*arenaCapacity),
		app.WithQueueCapacity(*queueCapacity),
		app.WithStepdownCount(*stepdown),
		app.WithStrip(*leds, sink),
		app.WithPaintPeriod(*paint),
		app.WithLogger(logger),
	)
	if err != nil {
		logger.Crit().Err(err).Log("boot failed")
		closeSink()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	switch err := run(ctx, s, *tick, *press); {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warning().Dur("timeout", *timeout).Log("timed out before the stepdown task finished")
	default:
		logger.Err().Err(err).Log("stopped")
	}

	stats := s.Stats()
	logger.Info().
		Uint64("steps", stats.Steps).
		Uint64("completed", stats.Completed).
		Uint64("sent", stats.Sent).
		Uint64("dropped", stats.Dropped).
		Uint64("painted", stats.Painted).
		Uint64("last_value", uint64(stats.LastValue)).
		Uint64("frames", stats.Frames).
		Log("shutdown")

	closeSink()
}

// run drives s until the stepdown task finishes, or ctx is done.
func run(ctx context.Context, s *app.System, tick, press time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)
	irq, stop := context.WithCancel(ctx)

	g.Go(func() error {
		return ignoreCanceled(s.Controller.Run(irq))
	})
	g.Go(func() error {
		return ignoreCanceled(board.RaiseEvery(irq, s.Tick, tick))
	})
	g.Go(func() error {
		return ignoreCanceled(board.RaiseEvery(irq, s.Button, press))
	})
	g.Go(func() error {
		defer stop()
		return s.Idle(ctx)
	})

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
