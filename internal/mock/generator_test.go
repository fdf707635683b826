package mock

import (
	"context"
	"testing"
	"time"

	"github.com/bit-cook/LiteMonitor/internal/config"
	"github.com/bit-cook/LiteMonitor/internal/metrics"
)

func newTestGenerator() *Generator {
	return NewGenerator(config.Default().Metrics.Thresholds, 8080)
}

func TestGenerator_SnapshotHasEveryItem(t *testing.T) {
	g := newTestGenerator()

	snap, err := g.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	p, ok := snap.(*metrics.Payload)
	if !ok {
		t.Fatalf("Snapshot() returned %T, want *metrics.Payload", snap)
	}

	if len(p.Items) != 10 {
		t.Errorf("got %d items, want 10", len(p.Items))
	}
	for _, it := range p.Items {
		if it.Value == "--" {
			t.Errorf("%s has no value", it.Key)
		}
	}
	if p.Sys.Port != 8080 {
		t.Errorf("Sys.Port = %d, want 8080", p.Sys.Port)
	}
	if p.Sys.Host == "" {
		t.Error("Sys.Host is empty")
	}
}

func TestGenerator_ReadingsStayInRange(t *testing.T) {
	g := newTestGenerator()

	for i := 0; i < 500; i++ {
		g.Advance()
		for key, v := range g.Readings() {
			if v < 0 {
				t.Fatalf("tick %d: %s = %v, want >= 0", i, key, v)
			}
		}
		r := g.Readings()
		if r[metrics.KeyCPULoad] > 100 || r[metrics.KeyMemLoad] > 100 {
			t.Fatalf("tick %d: load above 100%%: %v", i, r)
		}
		if b := r[metrics.KeyBatPercent]; b < 5 || b > 100 {
			t.Fatalf("tick %d: battery = %v, want 5..100", i, b)
		}
	}
}

func TestGenerator_StallGoesQuiet(t *testing.T) {
	g := newTestGenerator()

	quiet := false
	for i := 0; i < 10; i++ {
		g.Advance()
		if g.Readings()[metrics.KeyDiskWrite] == 0 {
			quiet = true
		}
	}
	if !quiet {
		t.Error("disk write never stalled over a full cycle")
	}
}

func TestGenerator_SetPort(t *testing.T) {
	g := newTestGenerator()
	g.SetPort(9090)

	snap, _ := g.Snapshot()
	if got := snap.(*metrics.Payload).Sys.Port; got != 9090 {
		t.Errorf("Sys.Port = %d, want 9090", got)
	}
}

func TestGenerator_StartAdvancesUntilCancelled(t *testing.T) {
	g := newTestGenerator()
	ctx, cancel := context.WithCancel(context.Background())

	g.Start(ctx, 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for {
		g.mu.Lock()
		tick := g.tick
		g.mu.Unlock()
		if tick >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("generator did not advance")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	time.Sleep(20 * time.Millisecond)
	g.mu.Lock()
	stopped := g.tick
	g.mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	g.mu.Lock()
	after := g.tick
	g.mu.Unlock()
	if after != stopped {
		t.Errorf("generator kept ticking after cancel: %d -> %d", stopped, after)
	}
}
