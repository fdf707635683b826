package mock

import (
	"context"
	"math"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/bit-cook/LiteMonitor/internal/config"
	"github.com/bit-cook/LiteMonitor/internal/metrics"
)

type mockReading struct {
	key     string
	pattern string
	value   float64
	base    float64
	spread  float64
	max     float64
}

// Generator produces plausible metrics without touching the hardware so the
// dashboard can be demoed on any machine.
type Generator struct {
	builder metrics.Builder
	host    string
	port    int
	started time.Time

	mu       sync.Mutex
	tick     int
	readings []*mockReading
	rng      *rand.Rand
}

func NewGenerator(th config.Thresholds, port int) *Generator {
	host, _ := os.Hostname()
	if host == "" {
		host = "mock-host"
	}
	g := &Generator{
		builder: metrics.Builder{Thresholds: th, CPUCount: 8},
		host:    host,
		port:    port,
		started: time.Now(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	const (
		kb = 1024.0
		mb = 1024 * kb
		gb = 1024 * mb
	)
	g.readings = []*mockReading{
		{key: metrics.KeyCPULoad, pattern: "burst", base: 18, spread: 12, max: 100},
		{key: metrics.KeyCPUTemp, pattern: "steady", base: 52, spread: 4, max: 100},
		{key: metrics.KeyMemLoad, pattern: "steady", base: 46, spread: 2, max: 100},
		{key: metrics.KeyMemUsed, pattern: "steady", base: 7.4 * gb, spread: 0.2 * gb, max: 16 * gb},
		{key: metrics.KeyDiskRead, pattern: "burst", base: 400 * kb, spread: 300 * kb, max: 400 * mb},
		{key: metrics.KeyDiskWrite, pattern: "stall", base: 2 * mb, spread: 1 * mb, max: 400 * mb},
		{key: metrics.KeyNetUp, pattern: "wave", base: 180 * kb, spread: 150 * kb, max: 100 * mb},
		{key: metrics.KeyNetDown, pattern: "burst", base: 1.5 * mb, spread: 1 * mb, max: 100 * mb},
		{key: metrics.KeySysLoad1, pattern: "wave", base: 1.2, spread: 0.8, max: 64},
		{key: metrics.KeyBatPercent, pattern: "drain", base: 100, max: 100},
	}
	for _, r := range g.readings {
		r.value = r.base
	}
	return g
}

// SetPort updates the port reported in the snapshot header.
func (g *Generator) SetPort(port int) {
	g.mu.Lock()
	g.port = port
	g.mu.Unlock()
}

// Start advances the readings every interval until ctx is cancelled.
func (g *Generator) Start(ctx context.Context, interval time.Duration) {
	go g.run(ctx, interval)
}

func (g *Generator) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Advance()
		}
	}
}

// Advance moves every reading one step along its pattern.
func (g *Generator) Advance() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tick++
	for _, r := range g.readings {
		switch r.pattern {
		case "steady":
			g.advanceSteady(r)
		case "burst":
			g.advanceBurst(r)
		case "stall":
			g.advanceStall(r)
		case "wave":
			g.advanceWave(r)
		case "drain":
			g.advanceDrain(r)
		}
		r.value = clamp(r.value, 0, r.max)
	}
}

func (g *Generator) advanceSteady(r *mockReading) {
	jitter := (g.rng.Float64()*2 - 1) * r.spread
	// Pull back towards the base so the walk never drifts off.
	r.value += jitter*0.5 + (r.base-r.value)*0.2
}

func (g *Generator) advanceBurst(r *mockReading) {
	mult := 1.0
	if g.tick%8 < 2 {
		mult = 3.5
	}
	r.value = r.base*mult + g.rng.Float64()*r.spread
}

func (g *Generator) advanceStall(r *mockReading) {
	// Work for 6 ticks, go quiet for 4.
	if g.tick%10 >= 6 {
		r.value = 0
		return
	}
	r.value = r.base + g.rng.Float64()*r.spread
}

func (g *Generator) advanceWave(r *mockReading) {
	phase := float64(g.tick) / 12 * 2 * math.Pi
	r.value = r.base + math.Sin(phase)*r.spread
}

func (g *Generator) advanceDrain(r *mockReading) {
	r.value -= 0.05
	if r.value <= 5 {
		r.value = r.base
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

// Readings returns a copy of the current values.
func (g *Generator) Readings() metrics.Readings {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := make(metrics.Readings, len(g.readings))
	for _, mr := range g.readings {
		r[mr.key] = mr.value
	}
	return r
}

func (g *Generator) Snapshot() (any, error) {
	r := g.Readings()

	g.mu.Lock()
	sys := metrics.SysInfo{
		Host:   g.host,
		IP:     "127.0.0.1",
		Port:   g.port,
		Uptime: metrics.FormatUptime(time.Since(g.started)),
	}
	g.mu.Unlock()

	p := g.builder.Build(sys, r)
	return &p, nil
}
