package protocol

// This file holds the response/event encoders: the inverse of the
// per-message parsers in internal/connection. Keeping them here, next to
// the type and code tables they serialize, lets this package's own tests
// exercise every wire shape without needing a live connection.

func u16le(buf []byte, v uint16) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
}

// EncodeHeaderErrorResponse builds a HeaderErrorResponse frame.
func EncodeHeaderErrorResponse(code HeaderErrorCode) []byte {
	frame, _ := EncodeFrame(uint8(HeaderErrorResponse), []byte{byte(code)})
	return frame
}

// EncodeListUsersFailure builds a ListUsersResponse frame carrying a
// non-success code.
func EncodeListUsersFailure(code ListUsersCode) []byte {
	frame, _ := EncodeFrame(uint8(ListUsersResponse), []byte{byte(code)})
	return frame
}

// EncodeListUsersSuccess builds a ListUsersResponse frame carrying the
// success code and the deduplicated, sorted display name list.
func EncodeListUsersSuccess(names []string) ([]byte, error) {
	body := make([]byte, 0, 2+len(names)*2)
	body = append(body, byte(ListUsersSuccess))
	body = append(body, byte(len(names)))
	for _, name := range names {
		body = append(body, byte(len(name)))
		body = append(body, name...)
	}
	return EncodeFrame(uint8(ListUsersResponse), body)
}

// EncodeLoginResponse builds a LoginResponse frame.
func EncodeLoginResponse(code LoginCode) []byte {
	frame, _ := EncodeFrame(uint8(LoginResponse), []byte{byte(code)})
	return frame
}

// EncodeLogoutResponse builds a LogoutResponse frame.
func EncodeLogoutResponse(code LogoutCode) []byte {
	frame, _ := EncodeFrame(uint8(LogoutResponse), []byte{byte(code)})
	return frame
}

// EncodeRegisterResponse builds a RegisterResponse frame.
func EncodeRegisterResponse(code RegisterCode) []byte {
	frame, _ := EncodeFrame(uint8(RegisterResponse), []byte{byte(code)})
	return frame
}

// EncodeSendPrivateMessageResponse builds a SendPrivateMessageResponse frame.
func EncodeSendPrivateMessageResponse(code SendPrivateMessageCode) []byte {
	frame, _ := EncodeFrame(uint8(SendPrivateMessageResponse), []byte{byte(code)})
	return frame
}

// EncodeSendPublicMessageResponse builds a SendPublicMessageResponse frame.
func EncodeSendPublicMessageResponse(code SendPublicMessageCode) []byte {
	frame, _ := EncodeFrame(uint8(SendPublicMessageResponse), []byte{byte(code)})
	return frame
}

// EncodeSendPrivateMessageEvent builds a SendPrivateMessageEvent frame.
// When anonymous is true the sender's name is omitted from the body.
func EncodeSendPrivateMessageEvent(senderName, message string, anonymous bool) ([]byte, error) {
	return encodeMessageEvent(SendPrivateMessageEvent, senderName, message, anonymous)
}

// EncodeSendPublicMessageEvent builds a SendPublicMessageEvent frame.
// When anonymous is true the sender's name is omitted from the body.
func EncodeSendPublicMessageEvent(senderName, message string, anonymous bool) ([]byte, error) {
	return encodeMessageEvent(SendPublicMessageEvent, senderName, message, anonymous)
}

func encodeMessageEvent(msgType ServerMessageType, senderName, message string, anonymous bool) ([]byte, error) {
	var body []byte
	if anonymous {
		body = make([]byte, 1+2+len(message))
		body[0] = 1
		u16le(body[1:3], uint16(len(message)))
		copy(body[3:], message)
	} else {
		body = make([]byte, 1+1+len(senderName)+2+len(message))
		body[0] = 0
		body[1] = byte(len(senderName))
		copy(body[2:], senderName)
		off := 2 + len(senderName)
		u16le(body[off:off+2], uint16(len(message)))
		copy(body[off+2:], message)
	}
	return EncodeFrame(uint8(msgType), body)
}
