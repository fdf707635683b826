package ws

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/bit-cook/LiteMonitor/internal/config"
	"github.com/bit-cook/LiteMonitor/internal/metrics"
	"github.com/bit-cook/LiteMonitor/internal/session"
)

var headerEnd = []byte("\r\n\r\n")

const (
	acceptBackoff = 50 * time.Millisecond

	// After an HTTP response the read side is drained briefly so unread
	// request bytes do not turn the close into a reset.
	lingerTimeout = 500 * time.Millisecond
	lingerBytes   = 64 << 10
)

// Server is the LAN mirror: a single TCP port that serves the dashboard
// page, the snapshot API and the WebSocket push channel.
type Server struct {
	cfg         config.WebConfig
	registry    *session.Registry
	responder   *Responder
	broadcaster *Broadcaster
	// writeTimeout bounds a single HTTP response.
	writeTimeout time.Duration

	// lifecycle serializes Start and Stop end to end, so a run's goroutines
	// are waited for before the next run is started.
	lifecycle sync.Mutex

	mu       sync.Mutex
	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewServer(cfg *config.Config, source metrics.Source, page []byte) *Server {
	registry := session.NewRegistry()
	return &Server{
		cfg:       cfg.Web,
		registry:  registry,
		responder: NewResponder(source, page),
		broadcaster: NewBroadcaster(registry, source,
			cfg.Broadcast.Interval, cfg.Broadcast.IdleInterval, cfg.Broadcast.SendTimeout),
		writeTimeout: cfg.Broadcast.SendTimeout,
	}
}

// Start binds the configured port and begins serving. It is a no-op when the
// server is disabled or already running.
func (s *Server) Start() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled {
		log.Debugf("LAN mirror disabled, not listening")
		return nil
	}
	if s.listener != nil {
		return nil
	}

	ln, err := listen(s.cfg.Port)
	if err != nil {
		log.Errorf("LAN mirror failed to start: %v", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.listener = ln
	s.cancel = cancel

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ln)
	}()
	go func() {
		defer s.wg.Done()
		s.broadcaster.Run(ctx)
	}()

	log.Printf("LAN mirror listening on %s", ln.Addr())
	return nil
}

// Stop closes the listener and every connected client. It is safe to call
// any number of times and concurrently with Start.
func (s *Server) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	ln := s.listener
	cancel := s.cancel
	s.listener = nil
	s.cancel = nil
	s.mu.Unlock()

	if ln == nil {
		return
	}

	cancel()
	if err := ln.Close(); err != nil {
		log.Debugf("closing listener: %v", err)
	}
	n := s.registry.CloseAll()
	s.wg.Wait()

	log.Printf("LAN mirror stopped, closed %d client(s)", n)
}

func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}

// Port returns the bound port, or -1 when not running.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return -1
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return -1
}

func (s *Server) ClientCount() int {
	return s.registry.Len()
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warnf("accept error: %v", err)
			time.Sleep(acceptBackoff)
			continue
		}
		go s.handleConn(conn)
	}
}

// handleConn classifies one accepted connection. WebSocket connections are
// handed to the registry and stay open; everything else gets a single HTTP
// response and is closed.
func (s *Server) handleConn(conn net.Conn) {
	request, err := s.readHeader(conn)
	if err != nil || len(request) == 0 {
		if err != nil {
			log.Debugf("reading request from %s: %v", conn.RemoteAddr(), err)
		}
		conn.Close()
		return
	}

	if s.writeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}

	if IsUpgrade(request) {
		err := Handshake(conn, request)
		if err == nil {
			s.register(conn)
			return
		}
		log.Debugf("handshake with %s failed: %v", conn.RemoteAddr(), err)
	}

	defer closeAfterResponse(conn)
	if err := s.responder.Respond(conn, request); err != nil {
		log.Debugf("responding to %s: %v", conn.RemoteAddr(), err)
	}
}

// closeAfterResponse half-closes the connection and discards whatever the
// client still sends before closing it for good.
func closeAfterResponse(conn net.Conn) {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		if err := cw.CloseWrite(); err == nil {
			conn.SetReadDeadline(time.Now().Add(lingerTimeout))
			io.Copy(io.Discard, io.LimitReader(conn, lingerBytes))
		}
	}
	conn.Close()
}

func (s *Server) register(conn net.Conn) {
	sess := session.New(conn)
	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})
	s.registry.Add(sess)

	// Stop may have swept the registry between the handshake and Add.
	if !s.Running() {
		s.registry.Remove(sess)
		sess.Close()
		return
	}

	log.WithField("session", sess.ID).Printf("WebSocket client connected: %s", sess.RemoteAddr)
	go receiveLoop(s.registry, sess)
}

// readHeader reads until the blank line ending the request headers, the
// size cap, EOF or the header deadline, whichever comes first. Whatever was
// read is returned; an error is reported only when nothing arrived.
func (s *Server) readHeader(conn net.Conn) (string, error) {
	if s.cfg.HeaderTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.cfg.HeaderTimeout))
	}

	limit := s.cfg.MaxHeaderBytes
	if limit <= 0 {
		limit = config.DefaultMaxHeaderBytes
	}
	buf := make([]byte, limit)
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if bytes.Contains(buf[:n], headerEnd) {
			break
		}
		if err != nil {
			if n == 0 {
				return "", err
			}
			break
		}
	}
	return string(buf[:n]), nil
}
