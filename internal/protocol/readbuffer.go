package protocol

import (
	"encoding/binary"
	"errors"
	"io"

	pkgerrors "github.com/pkg/errors"
)

// ErrWouldBlock signals that a read made no progress because the
// underlying reader had nothing buffered. Plain net.Conn reads in this
// codebase block instead of returning it, but the buffer exposes it so
// callers (and tests) that hand it a non-blocking io.Reader can detect
// the condition the same way the source's non-blocking sockets did.
var ErrWouldBlock = errors.New("protocol: read would block")

// ErrPeerClosed signals an orderly peer shutdown while bytes were still
// expected to complete the current frame.
var ErrPeerClosed = errors.New("protocol: peer closed connection")

// ErrInvalidRead signals that ReadU8/ReadU16 were called without enough
// buffered bytes to satisfy them.
var ErrInvalidRead = errors.New("protocol: invalid read past buffered bytes")

// ReadBuffer accumulates the bytes of one pending frame: first its
// 3-byte header, then its body. It tracks how many bytes have been
// consumed by the decoder (processed), how many have been obtained from
// the socket (filled), and the target byte count for the current phase
// (expected). 0 <= processed <= filled <= expected <= MaxFrameSize holds
// at all times.
type ReadBuffer struct {
	buf       [MaxFrameSize]byte
	processed int
	filled    int
	expected  int
}

// NewReadBuffer returns a ReadBuffer primed to read a header.
func NewReadBuffer() *ReadBuffer {
	rb := &ReadBuffer{}
	rb.Reset(HeaderSize)
	return rb
}

// Ready reports whether the buffer holds every byte of the current phase.
func (rb *ReadBuffer) Ready() bool {
	return rb.filled == rb.expected
}

// Reset zeroes the consumed/obtained counters and sets a new target byte
// count for the next phase (header or body).
func (rb *ReadBuffer) Reset(expected int) {
	rb.processed = 0
	rb.filled = 0
	rb.expected = expected
}

// Pull reads up to expected-filled bytes from r into the buffer, advancing
// filled by however many bytes actually transferred even if the read
// errored partway through. It returns ErrWouldBlock if r reports no bytes
// are currently available (io.ErrNoProgress-style readers only; a real
// net.Conn simply blocks), ErrPeerClosed on orderly EOF before the frame
// was complete, and a wrapped error for anything else.
func (rb *ReadBuffer) Pull(r io.Reader) error {
	if rb.Ready() {
		return nil
	}

	want := rb.expected - rb.filled
	n, err := r.Read(rb.buf[rb.filled : rb.filled+want])
	rb.filled += n

	if err != nil {
		if errors.Is(err, io.EOF) {
			return ErrPeerClosed
		}
		return pkgerrors.Wrap(err, "read buffer pull")
	}

	if n == 0 && want > 0 {
		return ErrWouldBlock
	}

	return nil
}

// ReadU8 consumes one byte, advancing processed.
func (rb *ReadBuffer) ReadU8() (byte, error) {
	b, ok := rb.TryReadU8()
	if !ok {
		return 0, ErrInvalidRead
	}
	return b, nil
}

// TryReadU8 is the non-erroring variant of ReadU8 used by parsers that
// need to distinguish "missing field" from other failures.
func (rb *ReadBuffer) TryReadU8() (byte, bool) {
	if rb.processed+1 > rb.filled {
		return 0, false
	}
	b := rb.buf[rb.processed]
	rb.processed++
	return b, true
}

// ReadU16 consumes a little-endian u16, advancing processed by two.
func (rb *ReadBuffer) ReadU16() (uint16, error) {
	v, ok := rb.TryReadU16()
	if !ok {
		return 0, ErrInvalidRead
	}
	return v, nil
}

// TryReadU16 is the non-erroring variant of ReadU16.
func (rb *ReadBuffer) TryReadU16() (uint16, bool) {
	if rb.processed+2 > rb.filled {
		return 0, false
	}
	v := binary.LittleEndian.Uint16(rb.buf[rb.processed:])
	rb.processed += 2
	return v, true
}

// TryReadBytes consumes n raw bytes, returning a fresh copy. Used for name,
// password, and message payloads once their length prefix is known.
func (rb *ReadBuffer) TryReadBytes(n int) ([]byte, bool) {
	if rb.processed+n > rb.filled {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, rb.buf[rb.processed:rb.processed+n])
	rb.processed += n
	return out, true
}
