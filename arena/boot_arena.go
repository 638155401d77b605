// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"sync"
	"unsafe"
)

// BootArena guards an Arena for the duration of the boot sequence.
//
// Allocation is only legal until Seal is called. Once sealed, every Alloc
// fails with ErrSealed, which makes a late allocation (a task spawned after
// boot) a loud error rather than a silent race with running drivers.
type BootArena struct {
	mtx    sync.Mutex
	a      Arena
	sealed bool
}

// NewBootArena wraps a.
func NewBootArena(a Arena) *BootArena {
	return &BootArena{a: a}
}

// Alloc satisfies the Arena interface.
func (a *BootArena) Alloc(size, alignment uintptr) (unsafe.Pointer, error) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.sealed {
		return nil, ErrSealed
	}
	if a.a == nil {
		return nil, &AllocError{Requested: size}
	}
	return a.a.Alloc(size, alignment)
}

// Seal ends the boot phase. It is idempotent.
func (a *BootArena) Seal() {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.sealed = true
}

// Sealed reports whether Seal has been called.
func (a *BootArena) Sealed() bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return a.sealed
}

// Len returns the total number of bytes consumed so far.
func (a *BootArena) Len() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.a == nil {
		return 0
	}
	return a.a.Len()
}

// Cap returns the total capacity of the arena.
func (a *BootArena) Cap() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.a == nil {
		return 0
	}
	return a.a.Cap()
}

// Remaining returns the number of bytes still available. A sealed arena has
// none.
func (a *BootArena) Remaining() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.a == nil || a.sealed {
		return 0
	}
	return a.a.Remaining()
}
