package protocol

import (
	"errors"
	"io"
)

// ErrWriteBufferFull signals that a connection's outbound queue had no
// room left for another frame. Fatal for the connection: a slow reader
// must not be allowed to make the sender block indefinitely.
var ErrWriteBufferFull = errors.New("protocol: write buffer full")

// WriteBuffer is a bounded queue of fully encoded frames for one
// connection's outbound side. A frame is only queued once every byte of
// it has been produced, and Drain writes each queued frame to completion
// before moving to the next, so framing can never desynchronize at the
// write side.
type WriteBuffer struct {
	frames chan []byte
}

// NewWriteBuffer returns a WriteBuffer able to hold capacity pending
// frames before Enqueue starts reporting ErrWriteBufferFull.
func NewWriteBuffer(capacity int) *WriteBuffer {
	return &WriteBuffer{frames: make(chan []byte, capacity)}
}

// Empty reports whether the buffer currently holds no queued frames.
func (wb *WriteBuffer) Empty() bool {
	return len(wb.frames) == 0
}

// Enqueue appends a fully encoded frame. It never blocks: if the queue is
// full it returns ErrWriteBufferFull immediately, matching the source's
// WriteBufferFullException.
func (wb *WriteBuffer) Enqueue(frame []byte) error {
	select {
	case wb.frames <- frame:
		return nil
	default:
		return ErrWriteBufferFull
	}
}

// Drain writes every currently queued frame to w, stopping at the first
// error or once the queue is empty.
func (wb *WriteBuffer) Drain(w io.Writer) error {
	for {
		select {
		case frame := <-wb.frames:
			if _, err := w.Write(frame); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// C exposes the underlying frame channel so a write pump can block on it
// alongside a shutdown signal instead of busy-polling Drain.
func (wb *WriteBuffer) C() <-chan []byte {
	return wb.frames
}

// EncodeFrame assembles a complete wire frame: type octet, little-endian
// u16 body size, then body. It is the single choke point that enforces
// body_size <= MaxBodySize before a byte is committed.
func EncodeFrame(msgType uint8, body []byte) ([]byte, error) {
	if len(body) > MaxBodySize {
		return nil, ErrWriteBufferFull
	}
	frame := make([]byte, HeaderSize+len(body))
	frame[0] = msgType
	frame[1] = byte(len(body))
	frame[2] = byte(len(body) >> 8)
	copy(frame[HeaderSize:], body)
	return frame, nil
}
