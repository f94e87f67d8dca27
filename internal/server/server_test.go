package server

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/randydom/chatroom/internal/chat"
	"github.com/randydom/chatroom/internal/protocol"
)

func startTestServer(t *testing.T) (*Server, string) {
	app := chat.NewApp()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(app, Config{MaxConnections: 2})
	errCh := make(chan error, 1)
	go func() { errCh <- s.acceptLoop(lis) }()
	t.Cleanup(func() { lis.Close() })

	return s, lis.Addr().String()
}

func TestServerAcceptsAndServesAConnection(t *testing.T) {
	_, addr := startTestServer(t)

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	frame, err := protocol.EncodeFrame(uint8(protocol.Register), credentialBody("zeda", "passw0rd"))
	require.NoError(t, err)
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))
	_, err = conn.Write(frame)
	require.NoError(t, err)

	header := make([]byte, protocol.HeaderSize)
	_, err = readFullTest(conn, header)
	require.NoError(t, err)
	bodySize := binary.LittleEndian.Uint16(header[1:])
	body := make([]byte, bodySize)
	_, err = readFullTest(conn, body)
	require.NoError(t, err)

	require.Equal(t, uint8(protocol.RegisterResponse), header[0])
	require.Equal(t, []byte{byte(protocol.RegisterSuccess)}, body)
}

func readFullTest(c net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := c.Read(buf[total:])
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
