// Package client implements the chat client's half of the protocol: a
// Session that sends request frames over a net.Conn and prints every
// response/event frame it receives, plus a line-oriented command parser
// for the operator-facing REPL.
package client

import (
	"fmt"
	"io"
	"net"

	"github.com/randydom/chatroom/internal/protocol"
)

// Session owns one client connection: the socket, the frames it decodes
// off it, and the writer everything user-visible gets printed to.
type Session struct {
	conn net.Conn
	out  io.Writer
	rb   *protocol.ReadBuffer

	// LoggedInAs is kept purely for REPL-side display; the server is the
	// authority on session state.
	LoggedInAs string
}

// NewSession wraps an already-dialed connection. out receives every
// printed line this session produces (stdout in the real CLI, a buffer
// in tests).
func NewSession(conn net.Conn, out io.Writer) *Session {
	return &Session{conn: conn, out: out, rb: protocol.NewReadBuffer()}
}

func (s *Session) send(msgType protocol.ClientMessageType, body []byte) error {
	frame, err := protocol.EncodeFrame(uint8(msgType), body)
	if err != nil {
		return err
	}
	_, err = s.conn.Write(frame)
	return err
}

// SendListUsers requests the current online roster.
func (s *Session) SendListUsers() error {
	return s.send(protocol.ListUsers, nil)
}

// SendLogin requests a login with the given credentials.
func (s *Session) SendLogin(name, password string) error {
	return s.send(protocol.Login, credentialBody(name, password))
}

// SendLogout ends the current session.
func (s *Session) SendLogout() error {
	return s.send(protocol.Logout, nil)
}

// SendRegister requests creation of a new profile.
func (s *Session) SendRegister(name, password string) error {
	return s.send(protocol.Register, credentialBody(name, password))
}

// SendPublicMessage broadcasts message to every other online user.
func (s *Session) SendPublicMessage(message string, anonymous bool) error {
	body := make([]byte, 0, 3+len(message))
	body = append(body, optionsByte(anonymous))
	body = append(body, u16leBytes(len(message))...)
	body = append(body, message...)
	return s.send(protocol.SendPublicMessage, body)
}

// SendPrivateMessage delivers message to the named recipient only.
func (s *Session) SendPrivateMessage(name, message string, anonymous bool) error {
	body := make([]byte, 0, 4+len(name)+len(message))
	body = append(body, optionsByte(anonymous))
	body = append(body, byte(len(name)))
	body = append(body, name...)
	body = append(body, u16leBytes(len(message))...)
	body = append(body, message...)
	return s.send(protocol.SendPrivateMessage, body)
}

func credentialBody(name, password string) []byte {
	body := make([]byte, 0, 2+len(name)+len(password))
	body = append(body, byte(len(name)))
	body = append(body, name...)
	body = append(body, byte(len(password)))
	body = append(body, password...)
	return body
}

func optionsByte(anonymous bool) byte {
	if anonymous {
		return protocol.AnonymousFlag
	}
	return 0
}

func u16leBytes(n int) []byte {
	return []byte{byte(n), byte(n >> 8)}
}

// Dispatch sends the wire request matching cmd. CmdQuit logs out, same
// as the reference client's handle_quit_command delegating straight to
// handle_logout_command.
func (s *Session) Dispatch(cmd *Command) error {
	switch cmd.Kind {
	case CmdList:
		return s.SendListUsers()
	case CmdLogin:
		return s.SendLogin(cmd.Name, cmd.Password)
	case CmdLogout:
		return s.SendLogout()
	case CmdRegister:
		return s.SendRegister(cmd.Name, cmd.Password)
	case CmdSend:
		return s.SendPublicMessage(cmd.Message, false)
	case CmdSendAnonymous:
		return s.SendPublicMessage(cmd.Message, true)
	case CmdSendPrivate:
		return s.SendPrivateMessage(cmd.Name, cmd.Message, false)
	case CmdSendPrivateAnonymous:
		return s.SendPrivateMessage(cmd.Name, cmd.Message, true)
	case CmdQuit:
		return s.SendLogout()
	}
	return nil
}

// Run reads and prints frames until the connection closes or errors. It
// is meant to run in its own goroutine alongside a REPL reading operator
// input, mirroring the reference client's separate read/ui threads.
func (s *Session) Run() error {
	for {
		msgType, body, err := s.readFrame()
		if err != nil {
			return err
		}
		s.handleFrame(msgType, body)
	}
}

func (s *Session) readFrame() (protocol.ServerMessageType, []byte, error) {
	s.rb.Reset(protocol.HeaderSize)
	for !s.rb.Ready() {
		if err := s.rb.Pull(s.conn); err != nil {
			return 0, nil, err
		}
	}
	msgTypeByte, _ := s.rb.ReadU8()
	bodySize, _ := s.rb.ReadU16()

	if int(bodySize) > protocol.MaxBodySize {
		fmt.Fprintln(s.out, "<*CLIENT*>: Received a message that exceeds buffer size from server (this is a bug)")
		return 0, nil, io.ErrUnexpectedEOF
	}
	if !protocol.ServerMessageType(msgTypeByte).Valid() {
		fmt.Fprintln(s.out, "<*CLIENT*>: Received an unknown message type from server (this is a bug)")
		return 0, nil, io.ErrUnexpectedEOF
	}

	msgType := protocol.ServerMessageType(msgTypeByte)
	s.rb.Reset(int(bodySize))
	for !s.rb.Ready() {
		if err := s.rb.Pull(s.conn); err != nil {
			return 0, nil, err
		}
	}
	body, _ := s.rb.TryReadBytes(int(bodySize))
	return msgType, body, nil
}

