package ws

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/valyala/bytebufferpool"

	"github.com/bit-cook/LiteMonitor/internal/metrics"
)

const (
	contentTypeJSON = "application/json"
	contentTypeHTML = "text/html; charset=utf-8"
)

// Responder answers plain HTTP requests on the WebSocket port: the snapshot
// API, a 404 for the favicon and the dashboard page for everything else.
type Responder struct {
	source metrics.Source
	page   []byte
}

func NewResponder(source metrics.Source, page []byte) *Responder {
	return &Responder{source: source, page: page}
}

// Respond writes exactly one response for the raw request text. The caller
// closes the connection afterwards.
func (r *Responder) Respond(w io.Writer, request string) error {
	path := requestPath(request)

	switch {
	case strings.HasPrefix(path, "/api/snapshot"):
		body, err := r.snapshotJSON()
		if err != nil {
			msg, _ := json.Marshal(map[string]string{"error": err.Error()})
			return writeResponse(w, http.StatusInternalServerError, contentTypeJSON, msg)
		}
		return writeResponse(w, http.StatusOK, contentTypeJSON, body)
	case path == "/favicon.ico":
		return writeResponse(w, http.StatusNotFound, contentTypeHTML, nil)
	default:
		return writeResponse(w, http.StatusOK, contentTypeHTML, r.page)
	}
}

func (r *Responder) snapshotJSON() ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := encodeSnapshot(buf, r.source); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.B...), nil
}

// encodeSnapshot appends the compact JSON form of one fresh snapshot to buf.
func encodeSnapshot(buf *bytebufferpool.ByteBuffer, source metrics.Source) error {
	snap, err := source.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := json.NewEncoder(buf).Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	buf.B = bytes.TrimRight(buf.B, "\n")
	return nil
}

// requestPath returns the target of the request line, without a query.
// Anything unparseable maps to "/".
func requestPath(request string) string {
	line, _, _ := strings.Cut(request, "\r\n")
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "/"
	}
	path, _, _ := strings.Cut(fields[1], "?")
	if path == "" {
		return "/"
	}
	return path
}

func writeResponse(w io.Writer, status int, contentType string, body []byte) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.B = append(buf.B, "HTTP/1.1 "...)
	buf.B = strconv.AppendInt(buf.B, int64(status), 10)
	buf.B = append(buf.B, ' ')
	buf.B = append(buf.B, http.StatusText(status)...)
	buf.B = append(buf.B, "\r\nContent-Type: "...)
	buf.B = append(buf.B, contentType...)
	buf.B = append(buf.B, "\r\nContent-Length: "...)
	buf.B = strconv.AppendInt(buf.B, int64(len(body)), 10)
	buf.B = append(buf.B, "\r\nAccess-Control-Allow-Origin: *\r\nConnection: close\r\n\r\n"...)
	buf.B = append(buf.B, body...)

	_, err := w.Write(buf.B)
	return err
}
