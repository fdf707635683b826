package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bit-cook/LiteMonitor/internal/config"
	"github.com/bit-cook/LiteMonitor/internal/metrics"
	"github.com/bit-cook/LiteMonitor/internal/mock"
	"github.com/bit-cook/LiteMonitor/internal/ws"
)

func samplePayload() metrics.Payload {
	return metrics.Payload{
		Sys: metrics.SysInfo{Host: "desk", IP: "10.0.0.2", Port: 8080, Uptime: "00.00:05:00"},
		Items: []metrics.Item{
			{Key: "CPU.Load", Name: "CPU Load", Value: "91", Unit: "%", GroupName: "Processor", Pct: 91, Status: metrics.StatusCrit, Primary: true},
			{Key: "CPU.Temp", Name: "CPU Temp", Value: "--", GroupName: "Processor"},
			{Key: "NET.Up", Name: "Upload", Value: "12.0", Unit: "KB/s", GroupName: "Network", Pct: 5},
		},
	}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// startMirror runs a LAN mirror on a free port backed by the mock source.
func startMirror(t *testing.T) string {
	t.Helper()
	cfg := config.Default()
	cfg.Web.Port = 0
	cfg.Broadcast.Interval = 20 * time.Millisecond
	cfg.Broadcast.IdleInterval = 20 * time.Millisecond

	srv := ws.NewServer(cfg, mock.NewGenerator(cfg.Metrics.Thresholds, 0), []byte("page"))
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(srv.Stop)
	return fmt.Sprintf("127.0.0.1:%d", srv.Port())
}

func TestModel_ViewBeforeSnapshot(t *testing.T) {
	m := New(NewClient("127.0.0.1:1"))

	view := m.View()
	if !strings.Contains(view, "waiting for the first snapshot") {
		t.Errorf("empty view missing placeholder:\n%s", view)
	}
	if !strings.Contains(view, "connecting") {
		t.Errorf("view should show the connection state:\n%s", view)
	}
}

func TestModel_SnapshotRendersGroups(t *testing.T) {
	m := New(NewClient("127.0.0.1:1"))

	next, cmd := m.Update(SnapshotMsg{Payload: samplePayload()})
	m = next.(Model)
	if cmd == nil {
		t.Error("SnapshotMsg should schedule the next read")
	}

	view := m.View()
	for _, want := range []string{"desk", "10.0.0.2:8080", "Processor", "Network", "CPU Load", "91 %", "--", "KB/s"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_CompactShowsPrimaryOnly(t *testing.T) {
	m := New(NewClient("127.0.0.1:1"))
	next, _ := m.Update(FetchedMsg{Payload: samplePayload()})
	next, _ = next.(Model).Update(runeKey('c'))
	m = next.(Model)

	view := m.View()
	if !strings.Contains(view, "CPU Load") {
		t.Errorf("compact view lost a primary item:\n%s", view)
	}
	if strings.Contains(view, "Upload") || strings.Contains(view, "Network") {
		t.Errorf("compact view shows non-primary items:\n%s", view)
	}
}

func TestModel_ConnectionTransitions(t *testing.T) {
	m := New(NewClient("127.0.0.1:1"))

	next, cmd := m.Update(ConnectedMsg{})
	m = next.(Model)
	if !m.connected || cmd == nil {
		t.Fatal("ConnectedMsg should mark the model live and start reading")
	}
	if !strings.Contains(m.View(), "live") {
		t.Error("view does not show the live state")
	}

	next, cmd = m.Update(DisconnectedMsg{Err: errors.New("connection reset")})
	m = next.(Model)
	if m.connected || cmd == nil {
		t.Fatal("DisconnectedMsg should mark the model offline and reconnect")
	}
	if !strings.Contains(m.View(), "connection reset") {
		t.Error("view does not show the disconnect reason")
	}
}

func TestModel_WindowResize(t *testing.T) {
	m := New(NewClient("127.0.0.1:1"))

	next, _ := m.Update(tea.WindowSizeMsg{Width: 10, Height: 20})
	m = next.(Model)
	if m.width != minWidth {
		t.Errorf("width = %d, want clamp to %d", m.width, minWidth)
	}

	next, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if got := next.(Model).width; got != 120 {
		t.Errorf("width = %d, want 120", got)
	}
}

func TestModel_Quit(t *testing.T) {
	m := New(NewClient("127.0.0.1:1"))

	_, cmd := m.Update(runeKey('q'))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if m.ctx.Err() == nil {
		t.Error("quitting should cancel background commands")
	}
}

func TestClient_SnapshotOverHTTP(t *testing.T) {
	addr := startMirror(t)
	c := NewClient(addr)

	p, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if len(p.Items) == 0 {
		t.Error("snapshot has no items")
	}
}

func TestClient_ListenAndRead(t *testing.T) {
	addr := startMirror(t)
	c := NewClient(addr)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, ok := c.Listen(ctx)().(ConnectedMsg); !ok {
		t.Fatal("Listen did not connect")
	}

	msg := c.ReadLoop(ctx)()
	snap, ok := msg.(SnapshotMsg)
	if !ok {
		t.Fatalf("ReadLoop returned %T, want SnapshotMsg", msg)
	}
	if snap.Payload.Sys.Host == "" || len(snap.Payload.Items) == 0 {
		t.Errorf("incomplete snapshot: %+v", snap.Payload)
	}
}

func TestClient_ReadWithoutConnection(t *testing.T) {
	c := NewClient("127.0.0.1:1")
	if _, ok := c.ReadLoop(context.Background())().(DisconnectedMsg); !ok {
		t.Error("ReadLoop without a connection should report a disconnect")
	}
}

func TestClient_FetchError(t *testing.T) {
	c := NewClient("127.0.0.1:1")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, ok := c.Fetch(ctx)().(FetchErrorMsg); !ok {
		t.Error("Fetch against a closed port should fail")
	}
}
