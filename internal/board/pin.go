// SPDX-License-Identifier: Apache-2.0

package board

import (
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// Pin is a push-pull output pin.
type Pin struct {
	name        string
	logger      *logiface.Logger[logiface.Event]
	high        atomic.Bool
	transitions atomic.Uint64
}

// PinOption represents a configuration option for a Pin.
type PinOption func(*Pin)

// WithPinLogger sets the logger used to trace level changes.
func WithPinLogger(logger *logiface.Logger[logiface.Event]) PinOption {
	return func(p *Pin) {
		p.logger = logger
	}
}

// NewPin returns an output pin driven to the given initial level.
func NewPin(name string, high bool, opts ...PinOption) *Pin {
	p := &Pin{name: name}
	p.high.Store(high)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pin) Name() string { return p.name }

// SetLow drives the pin low.
func (p *Pin) SetLow() { p.set(false) }

// SetHigh drives the pin high.
func (p *Pin) SetHigh() { p.set(true) }

// Toggle inverts the level of the pin.
func (p *Pin) Toggle() { p.set(!p.high.Load()) }

// IsHigh reports the current level of the pin.
func (p *Pin) IsHigh() bool { return p.high.Load() }

// Transitions returns the number of level changes since the pin was created.
func (p *Pin) Transitions() uint64 { return p.transitions.Load() }

func (p *Pin) set(high bool) {
	if p.high.Swap(high) == high {
		return
	}
	p.transitions.Add(1)
	p.logger.Trace().
		Str("pin", p.name).
		Bool("high", high).
		Log("pin level")
}
