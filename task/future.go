// SPDX-License-Identifier: Apache-2.0

package task

// Future is a computation that is advanced one step at a time.
//
// Poll runs the computation until it either suspends or finishes. It returns
// false while the computation is Pending, and the output together with true
// once it is Ready. Poll must not block, and must not be called again after
// it has reported Ready.
type Future[O any] interface {
	Poll() (O, bool)
}

// FutureFunc adapts a poll function, typically a hand-written state machine,
// to the Future interface.
type FutureFunc[O any] func() (O, bool)

// Poll calls f.
func (f FutureFunc[O]) Poll() (O, bool) {
	return f()
}

type yieldNow struct {
	yielded bool
}

// YieldNow returns a Future that is Pending exactly once, then Ready.
func YieldNow() Future[struct{}] {
	return &yieldNow{}
}

func (y *yieldNow) Poll() (struct{}, bool) {
	if y.yielded {
		return struct{}{}, true
	}
	y.yielded = true
	return struct{}{}, false
}
