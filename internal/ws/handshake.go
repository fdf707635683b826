package ws

import (
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// keyGUID is the fixed suffix RFC 6455 appends to the client key.
const keyGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

var ErrMissingKey = errors.New("ws: missing Sec-WebSocket-Key header")

// AcceptKey computes the Sec-WebSocket-Accept token for a client key.
func AcceptKey(key string) string {
	sum := sha1.Sum([]byte(key + keyGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// IsUpgrade reports whether the raw request is a GET asking to switch to
// WebSocket. The header check is a case-insensitive substring match.
func IsUpgrade(request string) bool {
	line, _, _ := strings.Cut(request, "\n")
	method, _, _ := strings.Cut(strings.TrimSpace(line), " ")
	if !strings.EqualFold(method, "GET") {
		return false
	}
	return strings.Contains(strings.ToLower(request), "upgrade: websocket")
}

// headerValue returns the trimmed value of the first header named name.
func headerValue(request, name string) (string, bool) {
	for _, line := range strings.Split(request, "\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(k), name) {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// Handshake answers a WebSocket upgrade request with 101 Switching
// Protocols. Nothing is written when the key is missing.
func Handshake(w io.Writer, request string) error {
	key, ok := headerValue(request, "Sec-WebSocket-Key")
	if !ok || key == "" {
		return ErrMissingKey
	}

	var sb strings.Builder
	sb.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	sb.WriteString("Connection: Upgrade\r\n")
	sb.WriteString("Upgrade: websocket\r\n")
	sb.WriteString("Sec-WebSocket-Accept: ")
	sb.WriteString(AcceptKey(key))
	sb.WriteString("\r\n\r\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("ws: write handshake: %w", err)
	}
	return nil
}
