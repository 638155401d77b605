// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// mockArena is a simple implementation of the Arena interface for testing purposes.
// It hands out ordinary Go memory and does no accounting.
type mockArena struct {
	allocs int
}

func (m *mockArena) Alloc(size, alignment uintptr) (unsafe.Pointer, error) {
	m.allocs++
	buf := make([]byte, size+alignment)
	p := unsafe.Pointer(unsafe.SliceData(buf))
	if rem := uintptr(p) % alignment; rem != 0 {
		p = unsafe.Add(p, alignment-rem)
	}
	return p, nil
}

func (m *mockArena) Len() int {
	// For testing purposes, return 0 as we don't track allocations
	return 0
}

func (m *mockArena) Cap() int {
	// For testing purposes, return a large value as we don't have a real limit
	return int(^uintptr(0) >> 1) // Maximum int value
}

func (m *mockArena) Remaining() int {
	return m.Cap()
}

func TestAllocateSliceWithArena(t *testing.T) {
	a := &mockArena{}

	s, err := AllocateSlice[int](a, 3, 5)
	require.NoError(t, err)
	s[0] = 1
	s[1] = 2
	s[2] = 3

	require.Equal(t, []int{1, 2, 3}, s)
	require.Equal(t, 5, cap(s))
	require.Equal(t, 1, a.allocs)
}

func TestAllocateSliceInRegion(t *testing.T) {
	arena := NewStaticArena(128).(*staticArena)

	s, err := AllocateSlice[uint16](arena, 4, 8)
	require.NoError(t, err)
	require.Len(t, s, 4)
	require.Equal(t, 16, arena.Len())

	start := uintptr(arena.ptr)
	p := uintptr(unsafe.Pointer(unsafe.SliceData(s)))
	require.True(t, p >= start && p < start+arena.size)

	// appends within capacity stay in the region
	s = append(s, 1, 2, 3, 4)
	require.Equal(t, p, uintptr(unsafe.Pointer(unsafe.SliceData(s))))
	require.Equal(t, []uint16{0, 0, 0, 0, 1, 2, 3, 4}, s)
}

func TestAllocateSlicePointerElements(t *testing.T) {
	arena := NewStaticArena(128)

	s, err := AllocateSlice[*int](arena, 2, 4)
	require.NoError(t, err)
	require.Len(t, s, 2)
	require.Equal(t, 4, cap(s))
	require.Equal(t, int(unsafe.Sizeof((*int)(nil)))*4, arena.Len())
}

func TestAllocateSliceExhausted(t *testing.T) {
	arena := NewStaticArena(16)

	s, err := AllocateSlice[uint64](arena, 0, 3)
	require.ErrorIs(t, err, ErrExhausted)
	require.Nil(t, s)
	require.Equal(t, 0, arena.Len())
}

func TestAllocateSliceZeroCap(t *testing.T) {
	arena := NewStaticArena(16)

	s, err := AllocateSlice[uint64](arena, 0, 0)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Empty(t, s)
	require.Equal(t, 0, arena.Len())
}

func TestAllocateSliceWithoutArena(t *testing.T) {
	s, err := AllocateSlice[string](nil, 2, 3)
	require.NoError(t, err)
	require.Len(t, s, 2)
	require.Equal(t, 3, cap(s))
}

func TestAllocateSliceSizeOverflow(t *testing.T) {
	arena := NewStaticArena(64)

	_, err := arena.Alloc(1, 1)
	require.NoError(t, err)

	s, err := AllocateSlice[uint64](arena, 0, 1<<61)
	var allocErr *AllocError
	require.ErrorAs(t, err, &allocErr)
	require.Nil(t, s)
	require.Equal(t, uintptr(63), allocErr.Remaining)
	require.Equal(t, 1, arena.Len())

	_, err = AllocateSlice[uint64](nil, 0, 1<<61)
	require.ErrorIs(t, err, ErrExhausted)
}

func TestAllocateSliceInvalidBounds(t *testing.T) {
	arena := NewStaticArena(64)

	for _, bounds := range [][2]int{{-1, 4}, {0, -1}, {5, 4}} {
		s, err := AllocateSlice[uint32](arena, bounds[0], bounds[1])
		require.ErrorIs(t, err, ErrExhausted, "len %d cap %d", bounds[0], bounds[1])
		require.Nil(t, s)

		_, err = AllocateSlice[uint32](nil, bounds[0], bounds[1])
		require.ErrorIs(t, err, ErrExhausted)
	}
	require.Equal(t, 0, arena.Len())
}
