package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/bit-cook/LiteMonitor/internal/config"
	"github.com/bit-cook/LiteMonitor/internal/frontend"
	"github.com/bit-cook/LiteMonitor/internal/metrics"
	"github.com/bit-cook/LiteMonitor/internal/mock"
	"github.com/bit-cook/LiteMonitor/internal/ws"
)

// portSetter is implemented by sources that report the listening port in
// their snapshot header.
type portSetter interface {
	SetPort(port int)
}

func main() {
	mockMode := flag.Bool("mock", false, "Serve synthetic metrics instead of reading the hardware")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	envPath := flag.String("env", ".env", "Path to dotenv file")
	port := flag.Int("port", -1, "Override server port (0 picks a free port)")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if err := config.LoadEnvFile(*envPath); err != nil {
		log.Fatalf("Failed to load %s: %v", *envPath, err)
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}
	if *port >= 0 {
		cfg.Web.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", cfg.Log.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var source metrics.Source
	if *mockMode {
		log.Println("Starting in mock mode")
		gen := mock.NewGenerator(cfg.Metrics.Thresholds, cfg.Web.Port)
		gen.Start(ctx, cfg.Broadcast.Interval)
		source = gen
	} else {
		log.Println("Starting in real mode (hardware sensors)")
		source = metrics.NewCollector(cfg.Metrics.Thresholds, cfg.Web.Port)
	}

	server := ws.NewServer(cfg, source, frontend.IndexPage())
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	if !server.Running() {
		log.Println("LAN mirror is disabled in config; nothing to do")
		return
	}
	if ps, ok := source.(portSetter); ok {
		ps.SetPort(server.Port())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	cancel()
	server.Stop()
}
