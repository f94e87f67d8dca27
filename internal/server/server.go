// Package server runs the chat listener: an Accept loop that hands each
// incoming socket to internal/connection, bounded by a maximum concurrent
// connection count.
package server

import (
	"log"
	"net"

	"github.com/pkg/errors"

	"github.com/randydom/chatroom/internal/chat"
	"github.com/randydom/chatroom/internal/connection"
)

// DefaultMaxConnections is used when Config.MaxConnections is left zero.
const DefaultMaxConnections = 64

// Config configures a Server.
type Config struct {
	// ListenAddr is the TCP address to accept connections on, e.g. ":3333".
	ListenAddr string
	// MaxConnections bounds how many clients may be connected at once;
	// a zero value is replaced with DefaultMaxConnections.
	MaxConnections int
}

// Server accepts TCP connections and serves each one against a shared
// chat.App domain instance until Run's listener errors out.
type Server struct {
	app    *chat.App
	config Config
	slots  chan struct{}
}

// New returns a Server bound to app. Run must be called to actually start
// accepting connections.
func New(app *chat.App, config Config) *Server {
	if config.MaxConnections <= 0 {
		config.MaxConnections = DefaultMaxConnections
	}
	return &Server{
		app:    app,
		config: config,
		slots:  make(chan struct{}, config.MaxConnections),
	}
}

// Run listens on s.config.ListenAddr and serves connections until the
// listener errors (including being closed by another goroutine). It
// always returns a non-nil error; a clean shutdown surfaces
// net.ErrClosed, which callers can match with errors.Is.
func (s *Server) Run() error {
	lis, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	defer lis.Close()

	log.Println("listening on:", lis.Addr())
	log.Println("max connections:", s.config.MaxConnections)

	return s.acceptLoop(lis)
}

func (s *Server) acceptLoop(lis net.Listener) error {
	for {
		select {
		case s.slots <- struct{}{}:
		default:
			// Distinct from a genuine accept error: capacity exhaustion
			// is an expected, recoverable condition under load, not a
			// listener fault, so it gets its own log line and the loop
			// blocks on the slot instead of spinning.
			log.Println("at capacity, waiting for a slot")
			s.slots <- struct{}{}
		}

		conn, err := lis.Accept()
		if err != nil {
			<-s.slots
			return errors.Wrap(err, "accept")
		}

		log.Println("remote address:", conn.RemoteAddr())

		go func() {
			defer func() { <-s.slots }()
			connection.New(conn, s.app).Serve()
		}()
	}
}
