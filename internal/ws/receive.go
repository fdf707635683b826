package ws

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/bit-cook/LiteMonitor/internal/session"
)

const receiveBufferSize = 1024

var receivePool = sync.Pool{
	New: func() any {
		b := make([]byte, receiveBufferSize)
		return &b
	},
}

// receiveLoop drains whatever the client sends. Inbound data is ignored
// apart from a close frame; the loop's only job is noticing that the peer
// went away.
func receiveLoop(registry *session.Registry, s *session.Session) {
	bp := receivePool.Get().(*[]byte)
	defer receivePool.Put(bp)
	defer func() {
		registry.Remove(s)
		s.Close()
		log.WithField("session", s.ID).Printf("WebSocket client disconnected: %s", s.RemoteAddr)
	}()

	buf := *bp
	for {
		n, err := s.Read(buf)
		if n == 0 || err != nil {
			return
		}
		if DecodeOpcode(buf[0]) == OpClose {
			return
		}
	}
}
