package ws

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

const sampleUpgrade = "GET /chat HTTP/1.1\r\n" +
	"Host: server.example.com\r\n" +
	"Upgrade: websocket\r\n" +
	"Connection: Upgrade\r\n" +
	"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
	"Sec-WebSocket-Version: 13\r\n\r\n"

func TestAcceptKey_RFCExample(t *testing.T) {
	got := AcceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	if got != "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=" {
		t.Errorf("AcceptKey() = %q, want %q", got, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=")
	}
}

func TestHandshake_Response(t *testing.T) {
	var buf bytes.Buffer
	if err := Handshake(&buf, sampleUpgrade); err != nil {
		t.Fatalf("Handshake() error: %v", err)
	}

	want := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Connection: Upgrade\r\n" +
		"Upgrade: websocket\r\n" +
		"Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=\r\n\r\n"
	if buf.String() != want {
		t.Errorf("response =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestHandshake_HeaderCaseInsensitive(t *testing.T) {
	req := strings.Replace(sampleUpgrade, "Sec-WebSocket-Key", "sec-websocket-key", 1)

	var buf bytes.Buffer
	if err := Handshake(&buf, req); err != nil {
		t.Fatalf("Handshake() error: %v", err)
	}
	if !strings.Contains(buf.String(), "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=") {
		t.Errorf("response missing accept token: %q", buf.String())
	}
}

func TestHandshake_MissingKey(t *testing.T) {
	tests := []struct {
		name string
		req  string
	}{
		{"absent", "GET / HTTP/1.1\r\nUpgrade: websocket\r\n\r\n"},
		{"empty", "GET / HTTP/1.1\r\nUpgrade: websocket\r\nSec-WebSocket-Key:   \r\n\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Handshake(&buf, tt.req)
			if !errors.Is(err, ErrMissingKey) {
				t.Errorf("Handshake() error = %v, want ErrMissingKey", err)
			}
			if buf.Len() != 0 {
				t.Errorf("Handshake() wrote %q on failure", buf.String())
			}
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestHandshake_WriteError(t *testing.T) {
	if err := Handshake(failingWriter{}, sampleUpgrade); err == nil {
		t.Fatal("Handshake() should report write errors")
	}
}

func TestIsUpgrade(t *testing.T) {
	tests := []struct {
		name string
		req  string
		want bool
	}{
		{"websocket", sampleUpgrade, true},
		{"lowercase header", "GET / HTTP/1.1\r\nupgrade: WebSocket\r\n\r\n", true},
		{"any path", "GET /api/snapshot HTTP/1.1\r\nUpgrade: websocket\r\n\r\n", true},
		{"plain get", "GET / HTTP/1.1\r\nHost: x\r\n\r\n", false},
		{"post upgrade", "POST / HTTP/1.1\r\nUpgrade: websocket\r\n\r\n", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUpgrade(tt.req); got != tt.want {
				t.Errorf("IsUpgrade() = %v, want %v", got, tt.want)
			}
		})
	}
}
