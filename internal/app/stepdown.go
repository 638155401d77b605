// SPDX-License-Identifier: Apache-2.0

package app

import (
	"github.com/sprocket-fw/cassette/internal/board"
	"github.com/sprocket-fw/cassette/task"
)

// StepdownButton blinks an LED once per two button presses: each step of the
// task moves the LED to its next level, Count times low then high.
type StepdownButton struct {
	Count int
	LED   *board.Pin
}

// Entry returns the task body. It completes after 2*Count+1 steps.
func (s *StepdownButton) Entry() task.Future[struct{}] {
	return task.Coroutine(func(co *task.Co) struct{} {
		for range s.Count {
			s.LED.SetLow()
			co.Yield()
			s.LED.SetHigh()
			co.Yield()
		}
		return struct{}{}
	})
}
