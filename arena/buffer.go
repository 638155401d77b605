// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"errors"
	"io"
)

// ErrBufferFull is returned when a write does not fit in a Buffer.
var ErrBufferFull = errors.New("arena: buffer full")

// Buffer is a bytes.Buffer-like struct over a fixed region taken from an
// arena. Its capacity is reserved once, at construction, and never grows:
// growing would leak arena space, since the arena cannot free.
// It implements io.Writer and io.WriterTo.
type Buffer struct {
	buf []byte
}

// NewBuffer reserves size bytes from a and returns an empty Buffer over them.
// If a is nil, it falls back to standard Go allocation.
func NewBuffer(a Arena, size int) (*Buffer, error) {
	buf, err := AllocateSlice[byte](a, 0, size)
	if err != nil {
		return nil, err
	}
	return &Buffer{buf: buf}, nil
}

// Write implements io.Writer interface.
// It writes as much of p as fits and returns ErrBufferFull on a short write.
func (b *Buffer) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}

	n = min(len(p), cap(b.buf)-len(b.buf))
	b.buf = append(b.buf, p[:n]...)
	if n < len(p) {
		return n, ErrBufferFull
	}

	return n, nil
}

// WriteByte writes a single byte to the buffer.
func (b *Buffer) WriteByte(c byte) error {
	if len(b.buf) == cap(b.buf) {
		return ErrBufferFull
	}
	b.buf = append(b.buf, c)
	return nil
}

// WriteTo implements io.WriterTo. Written bytes are removed from the buffer.
func (b *Buffer) WriteTo(w io.Writer) (n int64, err error) {
	if len(b.buf) == 0 {
		return 0, nil
	}

	total := len(b.buf)
	m, err := w.Write(b.buf)
	if m > 0 {
		n = int64(m)
		// Remove written bytes by shifting remaining data
		rest := copy(b.buf, b.buf[m:])
		b.buf = b.buf[:rest]
	}
	if err == nil && m < total {
		err = io.ErrShortWrite
	}

	return n, err
}

// Bytes returns a slice of length b.Len() holding the buffered bytes.
// The slice is valid for use only until the next buffer modification.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Cap returns the fixed capacity of the buffer.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Available returns how many more bytes can be written.
func (b *Buffer) Available() int {
	return cap(b.buf) - len(b.buf)
}

// Reset empties the buffer, keeping its region.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}

// Truncate discards all but the first n buffered bytes.
// It panics if n is negative or greater than the length of the buffer.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > len(b.buf) {
		panic("arena: truncation out of range")
	}
	b.buf = b.buf[:n]
}
