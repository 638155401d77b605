// SPDX-License-Identifier: Apache-2.0

// Package arena provides fixed-capacity, never-freed memory regions for
// state that must live for the remainder of the program.
//
// Allocations are carved sequentially from a single region. There is no
// deallocation: an arena is sized once, up front, to bound the worst case of
// everything allocated during boot. Requests that would overflow it fail with
// an [AllocError].
package arena

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// ErrExhausted is wrapped by every [AllocError].
var ErrExhausted = errors.New("arena: exhausted")

// ErrSealed is returned by a sealed [BootArena].
var ErrSealed = errors.New("arena: sealed")

// AllocError reports an allocation that did not fit in the remaining capacity.
type AllocError struct {
	// Requested is the number of bytes the allocation needed, including
	// alignment padding.
	Requested uintptr
	// Remaining is the number of bytes that were still free.
	Remaining uintptr
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("arena: exhausted: requested %d bytes, %d remaining", e.Requested, e.Remaining)
}

func (e *AllocError) Unwrap() error {
	return ErrExhausted
}

// Arena is an interface that describes a non-reclaimable allocation region.
type Arena interface {
	// Alloc reserves memory of the given size and returns a pointer to it.
	// The alignment parameter specifies the alignment of the reserved memory.
	// The reservation is never released.
	Alloc(size, alignment uintptr) (unsafe.Pointer, error)

	// Len returns the total number of bytes consumed so far, padding included.
	Len() int

	// Cap returns the total capacity (maximum bytes) of the arena.
	Cap() int

	// Remaining returns Cap() - Len().
	Remaining() int
}

// New stores v in memory charged against a, and returns an exclusive
// reference to it that stays valid for the remainder of the program.
//
// The charged size is unsafe.Sizeof(v). Values without Go pointers are placed
// inside the arena region itself. Values that hold pointers are placed in
// garbage-collected memory (the collector must be able to see them) but are
// still charged, so capacity planning is identical for both.
//
// If a is nil, New allocates using Go's built-in new function.
func New[T any](a Arena, v T) (*T, error) {
	if a == nil {
		p := new(T)
		*p = v
		return p, nil
	}
	ptr, err := a.Alloc(unsafe.Sizeof(v), unsafe.Alignof(v))
	if err != nil {
		return nil, err
	}
	var p *T
	if pointerFree(reflect.TypeFor[T]()) {
		p = (*T)(ptr)
	} else {
		p = new(T)
	}
	*p = v
	return p, nil
}

// MustNew is like New but panics if the allocation fails. It is intended for
// boot code, where a missing allocation means the program cannot proceed.
func MustNew[T any](a Arena, v T) *T {
	p, err := New(a, v)
	if err != nil {
		panic(err)
	}
	return p
}

var pointerFreeCache sync.Map // reflect.Type -> bool

// pointerFree reports whether values of t can live in untyped memory.
func pointerFree(t reflect.Type) bool {
	if v, ok := pointerFreeCache.Load(t); ok {
		return v.(bool)
	}
	ok := scanPointerFree(t)
	pointerFreeCache.Store(t, ok)
	return ok
}

func scanPointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || scanPointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !scanPointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
