package session

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var ErrClosed = errors.New("session closed")

// Session is a WebSocket connection that has completed the handshake. Only
// the broadcaster writes to it and only its receive loop reads from it.
type Session struct {
	ID          string
	RemoteAddr  string
	ConnectedAt time.Time

	conn      net.Conn
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func New(conn net.Conn) *Session {
	s := &Session{
		ID:          uuid.NewString(),
		ConnectedAt: time.Now(),
		conn:        conn,
	}
	if addr := conn.RemoteAddr(); addr != nil {
		s.RemoteAddr = addr.String()
	}
	return s
}

// Send writes one complete frame. A positive timeout bounds the write; a
// stalled peer surfaces as a deadline error.
func (s *Session) Send(frame []byte, timeout time.Duration) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if timeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	_, err := s.conn.Write(frame)
	return err
}

func (s *Session) Read(p []byte) (int, error) {
	return s.conn.Read(p)
}

// Close closes the underlying socket once. Later calls return the first
// result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

func (s *Session) Closed() bool {
	return s.closed.Load()
}
