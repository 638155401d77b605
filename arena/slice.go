// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"fmt"
	"reflect"
	"unsafe"
)

// AllocateSlice creates a slice of type T with a given length and capacity,
// charging the backing array against the provided Arena.
// Element types without Go pointers are backed by the arena region itself;
// other element types get an ordinary backing array of the same size.
// If the arena is nil, it returns a slice using Go's built-in make function.
//
// A negative length or capacity, a length above the capacity, or a backing
// array whose size overflows uintptr fails with an error wrapping
// ErrExhausted.
func AllocateSlice[T any](a Arena, len, cap int) ([]T, error) {
	if len < 0 || cap < 0 || len > cap {
		return nil, fmt.Errorf("arena: invalid slice length %d, capacity %d: %w", len, cap, ErrExhausted)
	}
	var x T
	elem := unsafe.Sizeof(x)
	if elem != 0 && uintptr(cap) > ^uintptr(0)/elem {
		return nil, &AllocError{Requested: ^uintptr(0), Remaining: remaining(a)}
	}
	if a == nil {
		return make([]T, len, cap), nil
	}
	if cap == 0 {
		return []T{}, nil
	}
	bufSize := elem * uintptr(cap)
	ptr, err := a.Alloc(bufSize, unsafe.Alignof(x))
	if err != nil {
		return nil, err
	}
	if !pointerFree(reflect.TypeFor[T]()) {
		return make([]T, len, cap), nil
	}
	s := unsafe.Slice((*T)(ptr), cap)
	return s[:len], nil
}

func remaining(a Arena) uintptr {
	if a == nil {
		return 0
	}
	return uintptr(a.Remaining())
}
