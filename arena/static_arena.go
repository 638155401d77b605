// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"unsafe"
)

// zeroBase is the address handed out for zero-sized allocations.
var zeroBase [0]uint64

type staticArena struct {
	ptr    unsafe.Pointer
	region []byte
	offset uintptr
	size   uintptr
}

// StaticArenaOption represents a configuration option for a static arena.
type StaticArenaOption func(*staticArena)

// WithRegion supplies the backing region instead of allocating one lazily.
// Only the first capacity bytes of region are used; a shorter region reduces
// the capacity to len(region).
func WithRegion(region []byte) StaticArenaOption {
	return func(a *staticArena) {
		if uintptr(len(region)) < a.size {
			a.size = uintptr(len(region))
		}
		a.region = region[:a.size:a.size]
	}
}

// NewStaticArena creates an arena over a single region of capacity bytes.
// The cursor only ever advances: nothing allocated from it is freed or reused.
func NewStaticArena(capacity int, opts ...StaticArenaOption) Arena {
	if capacity < 0 {
		capacity = 0
	}
	a := &staticArena{size: uintptr(capacity)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Alloc satisfies the Arena interface.
func (a *staticArena) Alloc(size, alignment uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return unsafe.Pointer(&zeroBase), nil
	}
	if alignment == 0 {
		alignment = 1
	}
	if a.ptr == nil && a.size > 0 {
		if a.region == nil {
			a.region = make([]byte, a.size) // allocate region lazily
		}
		a.ptr = unsafe.Pointer(unsafe.SliceData(a.region))
	}

	available := a.availableBytes()
	if a.ptr == nil || size > available {
		return nil, &AllocError{Requested: size, Remaining: available}
	}

	alignOffset := uintptr(0)
	if rem := (uintptr(a.ptr) + a.offset) % alignment; rem != 0 {
		alignOffset = alignment - rem
	}
	if alignOffset > available-size {
		return nil, &AllocError{Requested: size + alignOffset, Remaining: available}
	}
	allocSize := size + alignOffset
	ptr := unsafe.Add(a.ptr, a.offset+alignOffset)
	a.offset += allocSize

	// A caller-supplied region may hold stale data.
	clear(unsafe.Slice((*byte)(ptr), size))

	return ptr, nil
}

func (a *staticArena) availableBytes() uintptr {
	return a.size - a.offset
}

// Len returns the total number of bytes consumed so far.
func (a *staticArena) Len() int {
	return int(a.offset)
}

// Cap returns the total capacity of the arena.
func (a *staticArena) Cap() int {
	return int(a.size)
}

// Remaining returns the number of bytes still available.
func (a *staticArena) Remaining() int {
	return int(a.availableBytes())
}
