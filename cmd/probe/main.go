// Command probe follows a LAN mirror from another machine. By default it
// draws a terminal dashboard; with -plain it prints every snapshot as text,
// reconnecting when the server goes away.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/bit-cook/LiteMonitor/internal/metrics"
	"github.com/bit-cook/LiteMonitor/internal/tui"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	// The server pushes every second; this long without a frame means the
	// link is dead even if TCP has not noticed.
	readTimeout = 10 * time.Second
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "host:port of the LAN mirror")
	plain := flag.Bool("plain", false, "Print snapshots as text instead of drawing a dashboard")
	once := flag.Bool("once", false, "With -plain, exit after the first snapshot")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if !*plain {
		// Log lines would tear the alternate screen.
		log.SetLevel(log.ErrorLevel)
		p := tea.NewProgram(tui.New(tui.NewClient(*addr)), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	url := "ws://" + *addr + "/"
	if err := run(ctx, url, *once); err != nil && ctx.Err() == nil {
		log.Errorf("probe: %v", err)
		os.Exit(1)
	}
}

// run keeps a connection open until ctx is done, backing off between
// failed attempts.
func run(ctx context.Context, url string, once bool) error {
	delay := reconnectBaseDelay
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			log.Printf("ws dial error: %v (retry in %v)", err, delay)
			if !sleep(ctx, delay) {
				return nil
			}
			delay = min(delay*2, reconnectMaxDelay)
			continue
		}
		log.Printf("connected to %s", url)
		delay = reconnectBaseDelay

		done, err := readLoop(ctx, conn, once)
		conn.Close()
		if done {
			return err
		}
		log.Printf("disconnected: %v", err)
	}
}

// readLoop prints snapshots until the connection fails. done reports that
// the probe should exit rather than reconnect.
func readLoop(ctx context.Context, conn *websocket.Conn, once bool) (done bool, err error) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return ctx.Err() != nil, err
		}

		var p metrics.Payload
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warnf("unexpected message: %v", err)
			continue
		}
		fmt.Println(render(p))
		if once {
			return true, nil
		}
	}
}

func render(p metrics.Payload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s:%d) up %s\n", p.Sys.Host, p.Sys.IP, p.Sys.Port, p.Sys.Uptime)
	for _, it := range p.Items {
		mark := " "
		switch it.Status {
		case metrics.StatusWarn:
			mark = "!"
		case metrics.StatusCrit:
			mark = "X"
		}
		fmt.Fprintf(&b, " %s %-14s %8s %-5s\n", mark, it.Name, it.Value, it.Unit)
	}
	return b.String()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
