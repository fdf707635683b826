package tui

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/bit-cook/LiteMonitor/internal/metrics"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	// The server pushes every second; this long without a frame means the
	// link is dead even if TCP has not noticed.
	readTimeout = 10 * time.Second
	httpTimeout = 5 * time.Second
)

// Client follows a LAN mirror over WebSocket and fetches one-off snapshots
// over its HTTP API.
type Client struct {
	wsURL   string
	httpURL string
	http    *http.Client

	mu    sync.Mutex
	conn  *websocket.Conn
	delay time.Duration
}

// NewClient targets the server at addr (host:port).
func NewClient(addr string) *Client {
	return &Client{
		wsURL:   (&url.URL{Scheme: "ws", Host: addr, Path: "/"}).String(),
		httpURL: (&url.URL{Scheme: "http", Host: addr, Path: "/api/snapshot"}).String(),
		http:    &http.Client{Timeout: httpTimeout},
		delay:   reconnectBaseDelay,
	}
}

// --- Bubble Tea messages ---

// ConnectedMsg is sent when the WebSocket connects.
type ConnectedMsg struct{}

// DisconnectedMsg is sent when the connection drops.
type DisconnectedMsg struct{ Err error }

// SnapshotMsg delivers one pushed snapshot.
type SnapshotMsg struct{ Payload metrics.Payload }

// FetchedMsg delivers a snapshot requested over HTTP.
type FetchedMsg struct{ Payload metrics.Payload }

// FetchErrorMsg reports a failed HTTP snapshot request.
type FetchErrorMsg struct{ Err error }

// Listen returns a command that connects, retrying with exponential
// back-off until it succeeds or ctx is done.
func (c *Client) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		for {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, nil)
			if err == nil {
				c.mu.Lock()
				c.conn = conn
				c.delay = reconnectBaseDelay
				c.mu.Unlock()
				return ConnectedMsg{}
			}

			c.mu.Lock()
			delay := c.delay
			c.delay = min(c.delay*2, reconnectMaxDelay)
			c.mu.Unlock()

			log.Debugf("ws dial error: %v (retry in %v)", err, delay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
		}
	}
}

// ReadLoop returns a command that waits for the next snapshot. It should be
// reissued after every SnapshotMsg.
func (c *Client) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return DisconnectedMsg{Err: fmt.Errorf("no connection")}
		}

		stop := context.AfterFunc(ctx, func() { conn.Close() })
		defer stop()

		for {
			conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.drop(conn)
				return DisconnectedMsg{Err: err}
			}

			var p metrics.Payload
			if err := json.Unmarshal(data, &p); err != nil {
				log.Debugf("ignoring message: %v", err)
				continue
			}
			return SnapshotMsg{Payload: p}
		}
	}
}

func (c *Client) drop(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	conn.Close()
}

// Close drops the current connection, if any.
func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// Fetch returns a command that requests one snapshot over HTTP.
func (c *Client) Fetch(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		p, err := c.Snapshot(ctx)
		if err != nil {
			return FetchErrorMsg{Err: err}
		}
		return FetchedMsg{Payload: *p}
	}
}

// Snapshot fetches /api/snapshot.
func (c *Client) Snapshot(ctx context.Context) (*metrics.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.httpURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		if body.Error != "" {
			return nil, fmt.Errorf("GET %s: %s: %s", c.httpURL, resp.Status, body.Error)
		}
		return nil, fmt.Errorf("GET %s: %s", c.httpURL, resp.Status)
	}

	var p metrics.Payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &p, nil
}
