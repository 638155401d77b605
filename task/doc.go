// SPDX-License-Identifier: Apache-2.0

// Package task implements cooperative, step-once execution of statically
// allocated computations.
//
// A computation is a [Future]: each call to Poll advances it by one step and
// reports either Pending or Ready. [Spawn] places a computation's data and
// state in an [arena.Arena] and returns a [Handle], a small value that refers
// to that pinned state and can be handed to exactly one driver. The driver
// (an interrupt handler, or an iteration of an idle loop) calls [Step] once
// each time it runs, and never waits.
//
// Straight-line task bodies are written with [Coroutine]. Within the body,
// [Co.Yield] gives control back to the driver, and the next step resumes at
// the same point:
//
//	h, err := task.Spawn(a, blinker{n: 5, led: led}, func(b *blinker) task.Future[struct{}] {
//		return task.Coroutine(func(co *task.Co) struct{} {
//			for range b.n {
//				b.led.SetLow()
//				co.Yield()
//				b.led.SetHigh()
//				co.Yield()
//			}
//			return struct{}{}
//		})
//	})
//
// There is no scheduler, no priority and no cancellation: a task runs until
// it completes, or forever. Deciding when to step a task is up to the caller.
package task
