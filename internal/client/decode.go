package client

import (
	"encoding/binary"
	"fmt"

	"github.com/randydom/chatroom/internal/protocol"
)

// cursor walks a decoded frame body field by field. Every server response
// body is short and already fully buffered, so unlike internal/protocol's
// ReadBuffer this never needs to ask for more bytes; it simply reports
// whether the field it was asked for fit.
type cursor struct {
	b   []byte
	pos int
}

func (c *cursor) u8() (byte, bool) {
	if c.pos+1 > len(c.b) {
		return 0, false
	}
	v := c.b[c.pos]
	c.pos++
	return v, true
}

func (c *cursor) u16() (uint16, bool) {
	if c.pos+2 > len(c.b) {
		return 0, false
	}
	v := binary.LittleEndian.Uint16(c.b[c.pos:])
	c.pos += 2
	return v, true
}

func (c *cursor) bytes(n int) (string, bool) {
	if c.pos+n > len(c.b) {
		return "", false
	}
	s := string(c.b[c.pos : c.pos+n])
	c.pos += n
	return s, true
}

// handleFrame prints the operator-visible line for one decoded server
// frame, exactly reproducing the reference client's output strings
// (client.cpp's parse_and_handle_* family) so a human operator sees the
// same session transcript either implementation would have produced.
func (s *Session) handleFrame(msgType protocol.ServerMessageType, body []byte) {
	c := &cursor{b: body}

	switch msgType {
	case protocol.HeaderErrorResponse:
		s.printHeaderError(c)
	case protocol.ListUsersResponse:
		s.printListUsers(c)
	case protocol.LoginResponse:
		s.printLogin(c)
	case protocol.LogoutResponse:
		s.printLogout(c)
	case protocol.RegisterResponse:
		s.printRegister(c)
	case protocol.SendPrivateMessageEvent:
		s.printPrivateEvent(c)
	case protocol.SendPrivateMessageResponse:
		s.printPrivateResponse(c)
	case protocol.SendPublicMessageEvent:
		s.printPublicEvent(c)
	case protocol.SendPublicMessageResponse:
		s.printPublicResponse(c)
	}
}

func (s *Session) printHeaderError(c *cursor) {
	code, _ := c.u8()
	reason := "Unknown message type"
	if protocol.HeaderErrorCode(code) == protocol.MaximumMessageSizeExceeded {
		reason = "Maximum message size exceeded"
	}
	fmt.Fprintf(s.out, "<*SERVER*>: Message header error - %s (this is a bug)\n", reason)
}

func (s *Session) printListUsers(c *cursor) {
	code, _ := c.u8()
	switch protocol.ListUsersCode(code) {
	case protocol.ListUsersSuccess:
		count, _ := c.u8()
		fmt.Fprintf(s.out, "<*SERVER*>: %d user(s) online:\n", count)
		for i := byte(0); i < count; i++ {
			length, _ := c.u8()
			name, _ := c.bytes(int(length))
			fmt.Fprintf(s.out, " - %s\n", name)
		}
	case protocol.ListUsersUnauthenticated:
		fmt.Fprintln(s.out, "<*SERVER*> List users error - Not logged in")
	}
}

var loginMessages = map[protocol.LoginCode]string{
	protocol.LoginIncorrectPassword:       "Incorrect password",
	protocol.LoginInvalidName:             "Invalid name (name can contain only alphanumerical characters)",
	protocol.LoginInvalidNameLength:       "Invalid name length (name must be between 4 and 8 characters)",
	protocol.LoginInvalidPassword:         "Invalid password (password can contain only alphanumerical characters)",
	protocol.LoginInvalidPasswordLength:   "Invalid password length (password must be between 4 and 8 characters)",
	protocol.LoginMissingName:             "Missing name (this is a bug)",
	protocol.LoginMissingNameLength:       "Missing name length (this is a bug)",
	protocol.LoginMissingPassword:         "Missing password (this is a bug)",
	protocol.LoginMissingPasswordLength:   "Missing password length (this is a bug)",
	protocol.LoginUnauthorized:            "Already logged in",
	protocol.LoginUserDoesNotExist:        "User does not exist",
}

func (s *Session) printLogin(c *cursor) {
	code, _ := c.u8()
	lc := protocol.LoginCode(code)
	if lc == protocol.LoginSuccess {
		fmt.Fprintln(s.out, "<*SERVER*>: Successfully logged in")
		return
	}
	fmt.Fprintf(s.out, "<*SERVER*>: Login error - %s\n", loginMessages[lc])
}

func (s *Session) printLogout(c *cursor) {
	code, _ := c.u8()
	switch protocol.LogoutCode(code) {
	case protocol.LogoutSuccess:
		fmt.Fprintln(s.out, "<*SERVER*>: Successfully logged out")
	case protocol.LogoutUnauthenticated:
		fmt.Fprintln(s.out, "<*SERVER*>: Logout error - Not logged in")
	}
}

var registerMessages = map[protocol.RegisterCode]string{
	protocol.RegisterInvalidName:             "Invalid name (name can contain only alphanumerical characters)",
	protocol.RegisterInvalidNameLength:       "Invalid name length (name must be between 4 and 8 characters)",
	protocol.RegisterInvalidPassword:         "Invalid password (password can contain only alphanumerical characters)",
	protocol.RegisterInvalidPasswordLength:   "Invalid password length (password must be between 4 and 8 characters)",
	protocol.RegisterMissingName:             "Missing name (this is a bug)",
	protocol.RegisterMissingNameLength:       "Missing name length (this is a bug)",
	protocol.RegisterMissingPassword:         "Missing password (this is a bug)",
	protocol.RegisterMissingPasswordLength:   "Missing password length (this is a bug)",
	protocol.RegisterUnauthorized:            "Cannot register when logged in",
	protocol.RegisterUserAlreadyRegistered:   "User already registered",
}

func (s *Session) printRegister(c *cursor) {
	code, _ := c.u8()
	rc := protocol.RegisterCode(code)
	if rc == protocol.RegisterSuccess {
		fmt.Fprintln(s.out, "<*SERVER*>: Successfully registered (you can login now)")
		return
	}
	fmt.Fprintf(s.out, "<*SERVER*>: Register error - %s\n", registerMessages[rc])
}

func (s *Session) readNamedMessage(c *cursor) (anonymous bool, name, message string) {
	options, _ := c.u8()
	anonymous = options&protocol.AnonymousFlag != 0
	if !anonymous {
		nameLen, _ := c.u8()
		name, _ = c.bytes(int(nameLen))
	}
	msgLen, _ := c.u16()
	message, _ = c.bytes(int(msgLen))
	return anonymous, name, message
}

func (s *Session) printPrivateEvent(c *cursor) {
	anonymous, name, message := s.readNamedMessage(c)
	if anonymous {
		fmt.Fprintf(s.out, "<~ANONYMOUS~>: %s\n", message)
		return
	}
	fmt.Fprintf(s.out, "<~%s~>: %s\n", name, message)
}

func (s *Session) printPublicEvent(c *cursor) {
	anonymous, name, message := s.readNamedMessage(c)
	if anonymous {
		fmt.Fprintf(s.out, "<*ANONYMOUS*>: %s\n", message)
		return
	}
	fmt.Fprintf(s.out, "<%s>: %s\n", name, message)
}

var sendPrivateMessages = map[protocol.SendPrivateMessageCode]string{
	protocol.SendPrivateCannotMessageSelf:      "Cannot private message yourself",
	protocol.SendPrivateInvalidMessage:         "Invalid message (message can only contain printable characters)",
	protocol.SendPrivateInvalidMessageLength:   "Invalid message length (message must be between 1 and 4096 characters)",
	protocol.SendPrivateInvalidName:            "Invalid name (name can contain only alphanumerical characters)",
	protocol.SendPrivateInvalidNameLength:      "Invalid name length (name must be between 4 and 8 characters)",
	protocol.SendPrivateMissingMessage:         "Missing message (this is a bug)",
	protocol.SendPrivateMissingMessageLength:   "Missing message length (this is a bug)",
	protocol.SendPrivateMissingName:            "Missing name (this is a bug)",
	protocol.SendPrivateMissingNameLength:      "Missing name length (this is a bug)",
	protocol.SendPrivateMissingOptions:         "Missing options (this is a bug)",
	protocol.SendPrivateUnauthenticated:        "Not logged in",
	protocol.SendPrivateUserNotOnline:          "No such user",
}

func (s *Session) printPrivateResponse(c *cursor) {
	code, _ := c.u8()
	pc := protocol.SendPrivateMessageCode(code)
	if pc == protocol.SendPrivateSuccess {
		return
	}
	fmt.Fprintf(s.out, "<*SERVER*>: Send private message error - %s\n", sendPrivateMessages[pc])
}

var sendPublicMessages = map[protocol.SendPublicMessageCode]string{
	protocol.SendPublicInvalidMessage:       "Invalid message (message can only contain printable characters)",
	protocol.SendPublicInvalidMessageLength: "Invalid message length (message must be between 1 and 4096 characters)",
	protocol.SendPublicMissingMessage:       "Missing message (this is a bug)",
	protocol.SendPublicMissingMessageLength: "Missing message length (this is a bug)",
	protocol.SendPublicMissingOptions:       "Missing options (this is a bug)",
	protocol.SendPublicUnauthenticated:      "Not logged in",
}

func (s *Session) printPublicResponse(c *cursor) {
	code, _ := c.u8()
	pc := protocol.SendPublicMessageCode(code)
	if pc == protocol.SendPublicSuccess {
		return
	}
	fmt.Fprintf(s.out, "<*SERVER*>: Send message error - %s\n", sendPublicMessages[pc])
}
