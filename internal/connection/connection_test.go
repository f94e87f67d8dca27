package connection

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/randydom/chatroom/internal/chat"
	"github.com/randydom/chatroom/internal/protocol"
)

// sendRawHeader writes a raw 3-byte frame header without going through
// EncodeFrame, so a test can declare a body size EncodeFrame itself would
// reject.
func (tc *testClient) sendRawHeader(msgType uint8, bodySize uint16) {
	header := make([]byte, protocol.HeaderSize)
	header[0] = msgType
	binary.LittleEndian.PutUint16(header[1:], bodySize)
	require.NoError(tc.t, tc.conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	_, err := tc.conn.Write(header)
	require.NoError(tc.t, err)
}

// testClient wraps one end of a net.Pipe with small helpers to send
// request frames and read response frames, playing the role of the
// socket peer a real client process would be.
type testClient struct {
	t    *testing.T
	conn net.Conn
}

func newTestClient(t *testing.T, app *chat.App) *testClient {
	serverSide, clientSide := net.Pipe()
	c := New(serverSide, app)
	go c.Serve()
	t.Cleanup(func() { clientSide.Close() })
	return &testClient{t: t, conn: clientSide}
}

func (tc *testClient) send(msgType protocol.ClientMessageType, body []byte) {
	frame, err := protocol.EncodeFrame(uint8(msgType), body)
	require.NoError(tc.t, err)
	require.NoError(tc.t, tc.conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	_, err = tc.conn.Write(frame)
	require.NoError(tc.t, err)
}

func (tc *testClient) recv() (protocol.ServerMessageType, []byte) {
	header := make([]byte, protocol.HeaderSize)
	require.NoError(tc.t, tc.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := readFull(tc.conn, header)
	require.NoError(tc.t, err)

	bodySize := binary.LittleEndian.Uint16(header[1:])
	body := make([]byte, bodySize)
	if bodySize > 0 {
		_, err = readFull(tc.conn, body)
		require.NoError(tc.t, err)
	}
	return protocol.ServerMessageType(header[0]), body
}

func readFull(r net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func credentialBody(name, password string) []byte {
	body := make([]byte, 0, 2+len(name)+len(password))
	body = append(body, byte(len(name)))
	body = append(body, name...)
	body = append(body, byte(len(password)))
	body = append(body, password...)
	return body
}

func TestUnknownMessageTypeGetsHeaderError(t *testing.T) {
	app := chat.NewApp()
	tc := newTestClient(t, app)

	frame, err := protocol.EncodeFrame(99, nil)
	require.NoError(t, err)
	_, err = tc.conn.Write(frame)
	require.NoError(t, err)

	msgType, body := tc.recv()
	require.Equal(t, protocol.HeaderErrorResponse, msgType)
	require.Equal(t, []byte{byte(protocol.UnknownMessageType)}, body)
}

func TestRegisterThenLoginSucceeds(t *testing.T) {
	app := chat.NewApp()
	tc := newTestClient(t, app)

	tc.send(protocol.Register, credentialBody("alice", "pass1234"))
	msgType, body := tc.recv()
	require.Equal(t, protocol.RegisterResponse, msgType)
	require.Equal(t, []byte{byte(protocol.RegisterSuccess)}, body)

	tc.send(protocol.Login, credentialBody("alice", "pass1234"))
	msgType, body = tc.recv()
	require.Equal(t, protocol.LoginResponse, msgType)
	require.Equal(t, []byte{byte(protocol.LoginSuccess)}, body)
}

func TestLoginUnknownUserThenWrongPassword(t *testing.T) {
	app := chat.NewApp()
	require.NoError(t, app.Register("bobby", "secretpw"))
	tc := newTestClient(t, app)

	tc.send(protocol.Login, credentialBody("ghost", "whatever"))
	_, body := tc.recv()
	require.Equal(t, []byte{byte(protocol.LoginUserDoesNotExist)}, body)

	tc.send(protocol.Login, credentialBody("bobby", "badpassw"))
	_, body = tc.recv()
	require.Equal(t, []byte{byte(protocol.LoginIncorrectPassword)}, body)
}

func TestSendPublicMessageUnauthenticated(t *testing.T) {
	app := chat.NewApp()
	tc := newTestClient(t, app)

	body := append([]byte{0x00}, byte(0x05), 0x00)
	body = append(body, "hello"...)
	tc.send(protocol.SendPublicMessage, body)

	msgType, respBody := tc.recv()
	require.Equal(t, protocol.SendPublicMessageResponse, msgType)
	require.Equal(t, []byte{byte(protocol.SendPublicUnauthenticated)}, respBody)
}

func TestSendPrivateMessageCannotMessageSelf(t *testing.T) {
	app := chat.NewApp()
	require.NoError(t, app.Register("carol", "passw0rd"))
	tc := newTestClient(t, app)

	tc.send(protocol.Login, credentialBody("carol", "passw0rd"))
	tc.recv()

	body := []byte{0x00}
	body = append(body, byte(len("carol")))
	body = append(body, "carol"...)
	body = append(body, byte(5), 0x00)
	body = append(body, "hello"...)
	tc.send(protocol.SendPrivateMessage, body)

	_, respBody := tc.recv()
	require.Equal(t, []byte{byte(protocol.SendPrivateCannotMessageSelf)}, respBody)
}

func TestAnonymousFlagIsBitwiseNotLogicalAnd(t *testing.T) {
	app := chat.NewApp()
	require.NoError(t, app.Register("dave", "passw0rd"))
	require.NoError(t, app.Register("erin", "passw0rd"))

	sender := newTestClient(t, app)
	sender.send(protocol.Login, credentialBody("dave", "passw0rd"))
	sender.recv()

	recipient := newTestClient(t, app)
	recipient.send(protocol.Login, credentialBody("erin", "passw0rd"))
	recipient.recv()

	// options = 0x02: bit 0 clear, some other bit set. A logical-AND
	// reading (options && 0x01) would treat this as anonymous because
	// options != 0; the bitwise fix must not.
	body := []byte{0x02}
	body = append(body, byte(len("erin")))
	body = append(body, "erin"...)
	body = append(body, byte(5), 0x00)
	body = append(body, "howdy"...)
	sender.send(protocol.SendPrivateMessage, body)

	_, resp := sender.recv()
	require.Equal(t, []byte{byte(protocol.SendPrivateSuccess)}, resp)

	msgType, event := recipient.recv()
	require.Equal(t, protocol.SendPrivateMessageEvent, msgType)
	require.Equal(t, byte(0), event[0], "expected non-anonymous event since bit 0 of options was clear")
}

func TestInvalidMessageLengthStopsParsingAndSendsExactlyOneResponse(t *testing.T) {
	app := chat.NewApp()
	require.NoError(t, app.Register("frank", "passw0rd"))
	tc := newTestClient(t, app)

	tc.send(protocol.Login, credentialBody("frank", "passw0rd"))
	tc.recv()

	// options byte, then a message length of 0 - below MinMessageLength,
	// and no further bytes in the frame body. A parser that falls through
	// after flagging InvalidMessageLength would go on to try reading the
	// (absent) message bytes and enqueue a second, wrong response.
	body := []byte{0x00, 0x00, 0x00}
	tc.send(protocol.SendPublicMessage, body)

	msgType, respBody := tc.recv()
	require.Equal(t, protocol.SendPublicMessageResponse, msgType)
	require.Equal(t, []byte{byte(protocol.SendPublicInvalidMessageLength)}, respBody)

	// The state machine must be back at phaseHeader, not left mid-parse
	// behind a second queued response: the next request gets answered on
	// its own terms.
	tc.send(protocol.ListUsers, nil)
	msgType, _ = tc.recv()
	require.Equal(t, protocol.ListUsersResponse, msgType)
}

func TestOversizeBodyClosesConnection(t *testing.T) {
	app := chat.NewApp()
	tc := newTestClient(t, app)

	tc.sendRawHeader(uint8(protocol.ListUsers), uint16(protocol.MaxBodySize+1))

	msgType, body := tc.recv()
	require.Equal(t, protocol.HeaderErrorResponse, msgType)
	require.Equal(t, []byte{byte(protocol.MaximumMessageSizeExceeded)}, body)

	require.NoError(t, tc.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := tc.conn.Read(make([]byte, 1))
	require.Error(t, err, "connection should be closed after an oversize declared body")
}
