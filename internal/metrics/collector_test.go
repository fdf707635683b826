package metrics

import (
	"testing"

	"github.com/bit-cook/LiteMonitor/internal/config"
)

func TestCollector_LiveSnapshot(t *testing.T) {
	c := NewCollector(config.Default().Metrics.Thresholds, 8080)

	p, err := c.Collect()
	if err != nil {
		t.Skipf("host metrics unavailable: %v", err)
	}

	if p.Sys.Port != 8080 {
		t.Errorf("Sys.Port = %d, want 8080", p.Sys.Port)
	}
	if p.Sys.IP == "" {
		t.Error("Sys.IP should never be empty")
	}
	if len(p.Sys.Uptime) != len("00.00:00:00") {
		t.Errorf("Sys.Uptime = %q, want dd.hh:mm:ss", p.Sys.Uptime)
	}

	mem := findItem(t, *p, KeyMemLoad)
	if mem.Value == "--" {
		t.Error("MEM.Load should have a reading on a live host")
	}

	c.SetPort(9999)
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if got := snap.(*Payload).Sys.Port; got != 9999 {
		t.Errorf("Sys.Port after SetPort = %d, want 9999", got)
	}
}

func TestSourceFunc(t *testing.T) {
	var src Source = SourceFunc(func() (any, error) { return 42, nil })
	v, err := src.Snapshot()
	if err != nil || v != 42 {
		t.Errorf("SourceFunc.Snapshot() = %v, %v", v, err)
	}
}
