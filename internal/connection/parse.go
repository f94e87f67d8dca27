package connection

import (
	"github.com/randydom/chatroom/internal/chat"
	"github.com/randydom/chatroom/internal/protocol"
)

// handleFrame dispatches a fully buffered body to its parser. Each parser
// follows the same "first missing or invalid field wins" policy as the
// reference implementation: the moment a field can't be read or fails
// validation, the matching error response is sent and the parser returns
// immediately, leaving any remaining bytes in the body unread (they are
// discarded when the phase resets to AwaitHeader).
func (c *Conn) handleFrame(msgType protocol.ClientMessageType) {
	switch msgType {
	case protocol.ListUsers:
		c.parseListUsers()
	case protocol.Login:
		c.parseLogin()
	case protocol.Logout:
		c.parseLogout()
	case protocol.Register:
		c.parseRegister()
	case protocol.SendPrivateMessage:
		c.parseSendPrivateMessage()
	case protocol.SendPublicMessage:
		c.parseSendPublicMessage()
	}
}

func (c *Conn) parseListUsers() {
	if c.sessionID == 0 {
		c.Enqueue(protocol.EncodeListUsersFailure(protocol.ListUsersUnauthenticated))
		return
	}

	frame, err := protocol.EncodeListUsersSuccess(c.app.OnlineUsers())
	if err != nil {
		return
	}
	c.Enqueue(frame)
}

// readCredential reads a length-prefixed, ASCII-alnum name or password
// field, reporting which of the four ways it can fail (missing length,
// invalid length, missing bytes, invalid byte) via the supplied sender.
func (c *Conn) readCredential(missingLength, invalidLength, missingBytes, invalidBytes func()) (string, bool) {
	length, ok := c.rb.TryReadU8()
	if !ok {
		missingLength()
		return "", false
	}
	if !protocol.ValidCredentialLength(int(length)) {
		invalidLength()
		return "", false
	}

	raw, ok := c.rb.TryReadBytes(int(length))
	if !ok {
		missingBytes()
		return "", false
	}
	for _, b := range raw {
		if !protocol.IsASCIIAlnum(b) {
			invalidBytes()
			return "", false
		}
	}
	return string(raw), true
}

// readMessageBody reads a length-prefixed, ASCII-printable message field.
func (c *Conn) readMessageBody(missingLength, invalidLength, missingBytes, invalidBytes func()) (string, bool) {
	length, ok := c.rb.TryReadU16()
	if !ok {
		missingLength()
		return "", false
	}
	if !protocol.ValidMessageLength(int(length)) {
		invalidLength()
		return "", false
	}

	raw, ok := c.rb.TryReadBytes(int(length))
	if !ok {
		missingBytes()
		return "", false
	}
	for _, b := range raw {
		if !protocol.IsASCIIPrint(b) {
			invalidBytes()
			return "", false
		}
	}
	return string(raw), true
}

func (c *Conn) parseLogin() {
	if c.sessionID != 0 {
		c.Enqueue(protocol.EncodeLoginResponse(protocol.LoginUnauthorized))
		return
	}

	name, ok := c.readCredential(
		func() { c.Enqueue(protocol.EncodeLoginResponse(protocol.LoginMissingNameLength)) },
		func() { c.Enqueue(protocol.EncodeLoginResponse(protocol.LoginInvalidNameLength)) },
		func() { c.Enqueue(protocol.EncodeLoginResponse(protocol.LoginMissingName)) },
		func() { c.Enqueue(protocol.EncodeLoginResponse(protocol.LoginInvalidName)) },
	)
	if !ok {
		return
	}

	password, ok := c.readCredential(
		func() { c.Enqueue(protocol.EncodeLoginResponse(protocol.LoginMissingPasswordLength)) },
		func() { c.Enqueue(protocol.EncodeLoginResponse(protocol.LoginInvalidPasswordLength)) },
		func() { c.Enqueue(protocol.EncodeLoginResponse(protocol.LoginMissingPassword)) },
		func() { c.Enqueue(protocol.EncodeLoginResponse(protocol.LoginInvalidPassword)) },
	)
	if !ok {
		return
	}

	sessionID, err := c.app.Login(name, password, c)
	switch err {
	case nil:
		c.sessionID = sessionID
		c.logger.Printf("user %q logged in", name)
		c.Enqueue(protocol.EncodeLoginResponse(protocol.LoginSuccess))
	case chat.ErrUserDoesNotExist:
		c.Enqueue(protocol.EncodeLoginResponse(protocol.LoginUserDoesNotExist))
	case chat.ErrIncorrectPassword:
		c.Enqueue(protocol.EncodeLoginResponse(protocol.LoginIncorrectPassword))
	}
}

func (c *Conn) parseLogout() {
	if c.sessionID == 0 {
		c.Enqueue(protocol.EncodeLogoutResponse(protocol.LogoutUnauthenticated))
		return
	}

	c.app.Logout(c.sessionID)
	c.logger.Println("session logged out")
	c.sessionID = 0
	c.Enqueue(protocol.EncodeLogoutResponse(protocol.LogoutSuccess))
}

func (c *Conn) parseRegister() {
	if c.sessionID != 0 {
		c.Enqueue(protocol.EncodeRegisterResponse(protocol.RegisterUnauthorized))
		return
	}

	name, ok := c.readCredential(
		func() { c.Enqueue(protocol.EncodeRegisterResponse(protocol.RegisterMissingNameLength)) },
		func() { c.Enqueue(protocol.EncodeRegisterResponse(protocol.RegisterInvalidNameLength)) },
		func() { c.Enqueue(protocol.EncodeRegisterResponse(protocol.RegisterMissingName)) },
		func() { c.Enqueue(protocol.EncodeRegisterResponse(protocol.RegisterInvalidName)) },
	)
	if !ok {
		return
	}

	password, ok := c.readCredential(
		func() { c.Enqueue(protocol.EncodeRegisterResponse(protocol.RegisterMissingPasswordLength)) },
		func() { c.Enqueue(protocol.EncodeRegisterResponse(protocol.RegisterInvalidPasswordLength)) },
		func() { c.Enqueue(protocol.EncodeRegisterResponse(protocol.RegisterMissingPassword)) },
		func() { c.Enqueue(protocol.EncodeRegisterResponse(protocol.RegisterInvalidPassword)) },
	)
	if !ok {
		return
	}

	if err := c.app.Register(name, password); err != nil {
		c.Enqueue(protocol.EncodeRegisterResponse(protocol.RegisterUserAlreadyRegistered))
		return
	}

	c.logger.Printf("user %q registered", name)
	c.Enqueue(protocol.EncodeRegisterResponse(protocol.RegisterSuccess))
}

// readOptions reads the opts octet carried by both send-message requests
// and extracts the anonymous flag from bit 0.
func readOptions(options byte) bool {
	return options&protocol.AnonymousFlag != 0
}

func (c *Conn) parseSendPrivateMessage() {
	if c.sessionID == 0 {
		c.Enqueue(protocol.EncodeSendPrivateMessageResponse(protocol.SendPrivateUnauthenticated))
		return
	}

	options, ok := c.rb.TryReadU8()
	if !ok {
		c.Enqueue(protocol.EncodeSendPrivateMessageResponse(protocol.SendPrivateMissingOptions))
		return
	}
	anonymous := readOptions(options)

	recipient, ok := c.readCredential(
		func() { c.Enqueue(protocol.EncodeSendPrivateMessageResponse(protocol.SendPrivateMissingNameLength)) },
		func() { c.Enqueue(protocol.EncodeSendPrivateMessageResponse(protocol.SendPrivateInvalidNameLength)) },
		func() { c.Enqueue(protocol.EncodeSendPrivateMessageResponse(protocol.SendPrivateMissingName)) },
		func() { c.Enqueue(protocol.EncodeSendPrivateMessageResponse(protocol.SendPrivateInvalidName)) },
	)
	if !ok {
		return
	}

	message, ok := c.readMessageBody(
		func() { c.Enqueue(protocol.EncodeSendPrivateMessageResponse(protocol.SendPrivateMissingMessageLength)) },
		func() { c.Enqueue(protocol.EncodeSendPrivateMessageResponse(protocol.SendPrivateInvalidMessageLength)) },
		func() { c.Enqueue(protocol.EncodeSendPrivateMessageResponse(protocol.SendPrivateMissingMessage)) },
		func() { c.Enqueue(protocol.EncodeSendPrivateMessageResponse(protocol.SendPrivateInvalidMessage)) },
	)
	if !ok {
		return
	}

	profile, err := c.app.ProfileBySession(c.sessionID)
	if err != nil {
		c.Enqueue(protocol.EncodeSendPrivateMessageResponse(protocol.SendPrivateUnauthenticated))
		return
	}
	if profile.DisplayName == recipient {
		c.Enqueue(protocol.EncodeSendPrivateMessageResponse(protocol.SendPrivateCannotMessageSelf))
		return
	}

	delivered, err := c.app.DeliverPrivate(c.sessionID, recipient, message, anonymous)
	if err != nil || !delivered {
		c.Enqueue(protocol.EncodeSendPrivateMessageResponse(protocol.SendPrivateUserNotOnline))
		return
	}

	c.logger.Printf("user %q sent private message to %q", profile.DisplayName, recipient)
	c.Enqueue(protocol.EncodeSendPrivateMessageResponse(protocol.SendPrivateSuccess))
}

func (c *Conn) parseSendPublicMessage() {
	if c.sessionID == 0 {
		c.Enqueue(protocol.EncodeSendPublicMessageResponse(protocol.SendPublicUnauthenticated))
		return
	}

	options, ok := c.rb.TryReadU8()
	if !ok {
		c.Enqueue(protocol.EncodeSendPublicMessageResponse(protocol.SendPublicMissingOptions))
		return
	}
	anonymous := readOptions(options)

	message, ok := c.readMessageBody(
		func() { c.Enqueue(protocol.EncodeSendPublicMessageResponse(protocol.SendPublicMissingMessageLength)) },
		func() { c.Enqueue(protocol.EncodeSendPublicMessageResponse(protocol.SendPublicInvalidMessageLength)) },
		func() { c.Enqueue(protocol.EncodeSendPublicMessageResponse(protocol.SendPublicMissingMessage)) },
		func() { c.Enqueue(protocol.EncodeSendPublicMessageResponse(protocol.SendPublicInvalidMessage)) },
	)
	if !ok {
		return
	}

	senderName, err := c.app.BroadcastPublic(c.sessionID, message, anonymous)
	if err != nil {
		c.Enqueue(protocol.EncodeSendPublicMessageResponse(protocol.SendPublicUnauthenticated))
		return
	}

	c.logger.Printf("user %q sent public message", senderName)
	c.Enqueue(protocol.EncodeSendPublicMessageResponse(protocol.SendPublicSuccess))
}
