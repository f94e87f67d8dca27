// Package connection drives one client socket: the AwaitHeader/AwaitBody
// framing state machine, the per-message-type parsers, and the read/write
// pumps that bridge a net.Conn to the internal/chat domain.
package connection

import (
	"log"
	"net"

	"github.com/randydom/chatroom/internal/chat"
	"github.com/randydom/chatroom/internal/protocol"
)

// outboundCapacity bounds how many encoded frames may sit in a
// connection's write queue before a slow reader gets disconnected instead
// of stalling every other session's fan-out.
const outboundCapacity = 64

// Conn owns one client socket end to end: its read buffer and framing
// state machine, its outbound frame queue, and the session id the chat
// domain assigned it once logged in (0 until then). It implements
// chat.Handle so the domain package can push events straight onto its
// write queue without knowing anything about net.Conn or goroutines.
type Conn struct {
	nc     net.Conn
	app    *chat.App
	logger *log.Logger

	rb *protocol.ReadBuffer
	wb *protocol.WriteBuffer

	phase       phase
	pendingType protocol.ClientMessageType

	sessionID uint64
}

type phase int

const (
	phaseHeader phase = iota
	phaseBody
)

// New wraps nc for use with app. The returned Conn is not yet pumping;
// call Serve to run its read/write loop until the connection closes.
func New(nc net.Conn, app *chat.App) *Conn {
	return &Conn{
		nc:     nc,
		app:    app,
		logger: log.New(log.Writer(), nc.RemoteAddr().String()+" ", log.LstdFlags),
		rb:     protocol.NewReadBuffer(),
		wb:     protocol.NewWriteBuffer(outboundCapacity),
		phase:  phaseHeader,
	}
}

// Enqueue implements chat.Handle: it queues an already-encoded frame for
// the write pump to send. A full queue means a terminally slow reader;
// rather than block the caller (which would stall every other session's
// fan-out) it closes the socket, which in turn unwinds this connection's
// own Serve goroutine.
func (c *Conn) Enqueue(frame []byte) error {
	if err := c.wb.Enqueue(frame); err != nil {
		c.logger.Println("write queue full, closing connection:", err)
		c.nc.Close()
		return err
	}
	return nil
}

// Serve runs the connection until the peer disconnects, a protocol error
// closes it, or the socket errors out. It always logs the session out of
// the chat domain before returning (a no-op if never logged in).
func (c *Conn) Serve() {
	c.logger.Println("connection opened")

	stop := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump(stop)
	}()

	c.readPump()
	c.app.Logout(c.sessionID)

	close(stop)
	<-writerDone
	c.nc.Close()
	c.logger.Println("connection closed")
}

// writePump writes every frame the domain or this connection's own
// responses enqueue, until stop is closed by Serve on teardown.
func (c *Conn) writePump(stop <-chan struct{}) {
	frames := c.wb.C()
	for {
		select {
		case frame := <-frames:
			if _, err := c.nc.Write(frame); err != nil {
				return
			}
		case <-stop:
			// Flush whatever is already queued (e.g. a final response)
			// before giving up; Serve closes nc only after this
			// returns, so these writes still reach a reading peer.
			for {
				select {
				case frame := <-frames:
					if _, err := c.nc.Write(frame); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// readPump repeatedly pulls bytes for the current frame phase, advancing
// from header to body and back, dispatching each completed frame to
// handleFrame. It returns once the socket errors, the peer disconnects,
// or a fatal protocol violation closes the connection outright.
func (c *Conn) readPump() {
	for {
		if err := c.rb.Pull(c.nc); err != nil {
			return
		}
		if !c.rb.Ready() {
			continue
		}

		switch c.phase {
		case phaseHeader:
			msgType, _ := c.rb.ReadU8()
			bodySize, _ := c.rb.ReadU16()

			if !protocol.ClientMessageType(msgType).Valid() {
				c.Enqueue(protocol.EncodeHeaderErrorResponse(protocol.UnknownMessageType))
				c.rb.Reset(protocol.HeaderSize)
				continue
			}
			if int(bodySize) > protocol.MaxBodySize {
				// A body claiming more than the buffer can ever hold
				// means the peer is either broken or malicious; close
				// rather than try to resync past it.
				c.Enqueue(protocol.EncodeHeaderErrorResponse(protocol.MaximumMessageSizeExceeded))
				return
			}

			c.pendingType = protocol.ClientMessageType(msgType)
			c.rb.Reset(int(bodySize))
			c.phase = phaseBody

		case phaseBody:
			c.handleFrame(c.pendingType)
			c.rb.Reset(protocol.HeaderSize)
			c.phase = phaseHeader
		}
	}
}
