// SPDX-License-Identifier: Apache-2.0

package spsc

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/sprocket-fw/cassette/arena"
)

func TestNewInvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		p, c, err := New[int](capacity)
		require.ErrorIs(t, err, ErrInvalidCapacity)
		require.Nil(t, p)
		require.Nil(t, c)
	}
}

func TestQueueFIFO(t *testing.T) {
	p, c, err := New[int](16)
	require.NoError(t, err)
	require.Equal(t, 16, p.Cap())
	require.Equal(t, 16, c.Cap())

	for n := 1; n <= 16; n++ {
		for i := 1; i <= n; i++ {
			require.NoError(t, p.Enqueue(i))
		}
		require.Equal(t, n, p.Len())
		require.Equal(t, n, c.Len())

		for i := 1; i <= n; i++ {
			v, ok := c.Dequeue()
			require.True(t, ok)
			require.Equal(t, i, v)
		}
		require.Equal(t, 0, c.Len())
	}
}

func TestQueueFull(t *testing.T) {
	p, c, err := New[string](2)
	require.NoError(t, err)

	require.NoError(t, p.Enqueue("a"))
	require.NoError(t, p.Enqueue("b"))

	err = p.Enqueue("c")
	require.ErrorIs(t, err, ErrFull)

	var fullErr *QueueFullError[string]
	require.True(t, errors.As(err, &fullErr))
	require.Equal(t, "c", fullErr.Value)
	require.Equal(t, 2, fullErr.Capacity)
	require.EqualError(t, err, "spsc: queue full: capacity 2")

	// occupancy and contents are unchanged
	require.Equal(t, 2, p.Len())
	v, ok := c.Dequeue()
	require.True(t, ok)
	require.Equal(t, "a", v)
	v, ok = c.Dequeue()
	require.True(t, ok)
	require.Equal(t, "b", v)

	// room again
	require.NoError(t, p.Enqueue("c"))
}

func TestQueueEmpty(t *testing.T) {
	p, c, err := New[int](4)
	require.NoError(t, err)

	v, ok := c.Dequeue()
	require.False(t, ok)
	require.Zero(t, v)
	require.Equal(t, 0, c.Len())

	require.NoError(t, p.Enqueue(5))
	_, ok = c.Dequeue()
	require.True(t, ok)

	_, ok = c.Dequeue()
	require.False(t, ok)
	require.Equal(t, 0, p.Len())
}

func TestQueueWrapAround(t *testing.T) {
	p, c, err := New[int](3)
	require.NoError(t, err)

	// many laps over a capacity that is not a power of two
	next := 0
	want := 0
	for lap := 0; lap < 100; lap++ {
		for p.Len() < p.Cap() {
			require.NoError(t, p.Enqueue(next))
			next++
		}
		for i := 0; i < 2; i++ {
			v, ok := c.Dequeue()
			require.True(t, ok)
			require.Equal(t, want, v)
			want++
		}
	}
	require.Equal(t, next-want, c.Len())
}

func TestDequeueClearsSlot(t *testing.T) {
	p, c, err := New[*int](2)
	require.NoError(t, err)

	x := 1
	require.NoError(t, p.Enqueue(&x))
	v, ok := c.Dequeue()
	require.True(t, ok)
	require.Same(t, &x, v)

	for _, slot := range c.q.buf {
		require.Nil(t, slot)
	}
}

func TestNewIn(t *testing.T) {
	a := arena.NewStaticArena(4096)

	p, c, err := NewIn[uint32](a, 16)
	require.NoError(t, err)

	// the ring header is charged, and the storage lives in the region
	require.GreaterOrEqual(t, a.Len(), int(unsafe.Sizeof(ring[uint32]{}))+16*4)
	require.Len(t, c.q.buf, 16)

	next, err := a.Alloc(1, 1)
	require.NoError(t, err)
	start := uintptr(next) - uintptr(a.Len()-1)
	data := uintptr(unsafe.Pointer(unsafe.SliceData(c.q.buf)))
	require.True(t, data >= start && data < uintptr(next))

	require.NoError(t, p.Enqueue(42))
	v, ok := c.Dequeue()
	require.True(t, ok)
	require.Equal(t, uint32(42), v)
}

func TestNewInExhausted(t *testing.T) {
	a := arena.NewStaticArena(64)

	_, _, err := NewIn[uint64](a, 16)
	require.ErrorIs(t, err, arena.ErrExhausted)
}

func TestNewInCapacityOverflow(t *testing.T) {
	a := arena.NewStaticArena(1024)

	p, c, err := NewIn[uint32](a, 1<<62)
	require.ErrorIs(t, err, arena.ErrExhausted)
	require.Nil(t, p)
	require.Nil(t, c)

	_, _, err = New[uint64](1 << 62)
	require.ErrorIs(t, err, arena.ErrExhausted)
}

func TestQueueConcurrent(t *testing.T) {
	const total = 100000

	p, c, err := New[int](16)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)

	var dropped int
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if err := p.Enqueue(i); err != nil {
				dropped++
				runtime.Gosched() // wait for the consumer to free a slot
				continue
			}
			i++
		}
	}()

	received := make([]int, 0, total)
	go func() {
		defer wg.Done()
		for len(received) < total {
			if v, ok := c.Dequeue(); ok {
				received = append(received, v)
			} else {
				runtime.Gosched()
			}
		}
	}()

	wg.Wait()

	// no reordering, no loss, no duplication
	for i, v := range received {
		require.Equal(t, i, v)
	}
	require.Equal(t, 0, c.Len())
	t.Logf("producer saw a full queue %d times", dropped)
}

func BenchmarkEnqueueDequeue(b *testing.B) {
	p, c, err := New[int](16)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Enqueue(i)
		c.Dequeue()
	}
}

func BenchmarkEnqueueDequeueConcurrent(b *testing.B) {
	p, c, err := New[int](1024)
	if err != nil {
		b.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for n := 0; n < b.N; {
			if _, ok := c.Dequeue(); ok {
				n++
			}
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; {
		if p.Enqueue(i) == nil {
			i++
		}
	}
	<-done
}
