package ws

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/valyala/bytebufferpool"

	"github.com/bit-cook/LiteMonitor/internal/metrics"
	"github.com/bit-cook/LiteMonitor/internal/session"
)

// Broadcaster pushes one snapshot frame per interval to every registered
// session.
type Broadcaster struct {
	registry    *session.Registry
	source      metrics.Source
	interval    time.Duration
	idle        time.Duration
	sendTimeout time.Duration

	scratch bytebufferpool.Pool
	frames  bytebufferpool.Pool
}

func NewBroadcaster(registry *session.Registry, source metrics.Source, interval, idle, sendTimeout time.Duration) *Broadcaster {
	return &Broadcaster{
		registry:    registry,
		source:      source,
		interval:    interval,
		idle:        idle,
		sendTimeout: sendTimeout,
	}
}

// Run ticks until ctx is cancelled. With nobody connected the source is not
// queried at all.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		wait := b.interval
		if b.registry.IsEmpty() {
			wait = b.idle
		} else {
			b.tick()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// tick runs one fetch, serialize, frame and fan-out round. It returns the
// number of sessions that were dropped.
func (b *Broadcaster) tick() int {
	targets := b.registry.Sessions()
	if len(targets) == 0 {
		return 0
	}

	frame := b.frames.Get()
	defer b.frames.Put(frame)

	if err := b.buildFrame(frame); err != nil {
		log.Warnf("broadcast: skipping tick: %v", err)
		return 0
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		dropped int
	)
	for _, s := range targets {
		wg.Add(1)
		go func(s *session.Session) {
			defer wg.Done()
			if err := s.Send(frame.B, b.sendTimeout); err != nil {
				b.registry.Remove(s)
				s.Close()
				log.WithField("session", s.ID).Warnf("ws client dropped: %s: %v", s.RemoteAddr, err)
				mu.Lock()
				dropped++
				mu.Unlock()
			}
		}(s)
	}
	wg.Wait()

	return dropped
}

// buildFrame serializes a fresh snapshot and frames it into dst. The
// scratch buffer goes back to its pool before the fan-out starts.
func (b *Broadcaster) buildFrame(dst *bytebufferpool.ByteBuffer) error {
	scratch := b.scratch.Get()
	defer b.scratch.Put(scratch)

	if err := encodeSnapshot(scratch, b.source); err != nil {
		return err
	}
	dst.B = AppendFrame(dst.B[:0], scratch.B)
	return nil
}
