package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by ApplyEnv. They override the file.
const (
	EnvEnabled  = "LITEMONITOR_WEB_ENABLED"
	EnvPort     = "LITEMONITOR_WEB_PORT"
	EnvLogLevel = "LITEMONITOR_LOG_LEVEL"
)

const (
	DefaultPort           = 8080
	DefaultMaxHeaderBytes = 8 * 1024
	minHeaderBytes        = 512
)

type Config struct {
	Web       WebConfig       `yaml:"web"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

type WebConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Port           int           `yaml:"port"`
	HeaderTimeout  time.Duration `yaml:"header_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// BroadcastConfig holds the push cadence. The defaults are the values the
// desktop overlay has always shipped with.
type BroadcastConfig struct {
	Interval     time.Duration `yaml:"interval"`
	IdleInterval time.Duration `yaml:"idle_interval"`
	SendTimeout  time.Duration `yaml:"send_timeout"`
}

type MetricsConfig struct {
	Thresholds Thresholds `yaml:"thresholds"`
}

// Range is a warn -> crit pair. A zero Crit disables the critical state.
type Range struct {
	Warn float64 `yaml:"warn"`
	Crit float64 `yaml:"crit"`
}

type Thresholds struct {
	Load      Range `yaml:"load"`
	Temp      Range `yaml:"temp"`
	DiskMB    Range `yaml:"disk_mb"`
	NetUpMB   Range `yaml:"net_up_mb"`
	NetDownMB Range `yaml:"net_down_mb"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func defaultConfig() *Config {
	return &Config{
		Web: WebConfig{
			Enabled:        true,
			Port:           DefaultPort,
			HeaderTimeout:  5 * time.Second,
			MaxHeaderBytes: DefaultMaxHeaderBytes,
		},
		Broadcast: BroadcastConfig{
			Interval:     time.Second,
			IdleInterval: 2 * time.Second,
			SendTimeout:  2 * time.Second,
		},
		Metrics: MetricsConfig{
			Thresholds: Thresholds{
				Load:      Range{Warn: 60, Crit: 85},
				Temp:      Range{Warn: 70, Crit: 85},
				DiskMB:    Range{Warn: 50, Crit: 200},
				NetUpMB:   Range{Warn: 5, Crit: 20},
				NetDownMB: Range{Warn: 10, Crit: 50},
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to the defaults when the
// file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment. Variables already set are left alone and a missing file is
// not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnv overrides the enabled flag, port and log level from the
// environment.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvEnabled); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvEnabled, err)
		}
		c.Web.Enabled = enabled
	}
	if v, ok := os.LookupEnv(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Web.Port = port
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port %d out of range", c.Web.Port)
	}
	if c.Web.HeaderTimeout <= 0 {
		return errors.New("web.header_timeout must be positive")
	}
	if c.Web.MaxHeaderBytes < minHeaderBytes {
		return fmt.Errorf("web.max_header_bytes must be at least %d", minHeaderBytes)
	}
	if c.Broadcast.Interval <= 0 {
		return errors.New("broadcast.interval must be positive")
	}
	if c.Broadcast.IdleInterval <= 0 {
		return errors.New("broadcast.idle_interval must be positive")
	}
	if c.Broadcast.SendTimeout <= 0 {
		return errors.New("broadcast.send_timeout must be positive")
	}
	return nil
}
