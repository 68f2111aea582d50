package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default source identities. The download provider multiplexes every
// transfer under one package name and tells them apart by notification tag.
const (
	DownloadsSource = "com.android.providers.downloads"
	BluetoothSource = "com.android.bluetooth"
	MediatekSource  = "com.mediatek.bluetooth"
)

type Config struct {
	Server    ServerConfig  `yaml:"server"`
	Tracker   TrackerConfig `yaml:"tracker"`
	Indicator Settings      `yaml:"indicator"`
	Log       LogConfig     `yaml:"log"`
	Mock      MockConfig    `yaml:"mock"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	Token          string   `yaml:"token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// Coalescing window for progress messages sent to consumers.
	BroadcastThrottle time.Duration `yaml:"broadcast_throttle"`
	MaxConnections    int           `yaml:"max_connections"`
}

// TrackerConfig decides which notification sources may be mirrored and
// which of them keys sessions by tag instead of by numeric id.
type TrackerConfig struct {
	AllowedSources    []string `yaml:"allowed_sources"`
	MultiplexedSource string   `yaml:"multiplexed_source"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MockConfig struct {
	Interval time.Duration `yaml:"interval"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8090,
			Host:              "127.0.0.1",
			BroadcastThrottle: 100 * time.Millisecond,
			MaxConnections:    64,
		},
		Tracker: TrackerConfig{
			AllowedSources:    []string{DownloadsSource, BluetoothSource, MediatekSource},
			MultiplexedSource: DownloadsSource,
		},
		Indicator: Settings{
			Mode:         Top,
			Animated:     true,
			ThicknessDip: 1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Mock: MockConfig{
			Interval: 500 * time.Millisecond,
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns the defaults when the file
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.BroadcastThrottle < 0 {
		return fmt.Errorf("server.broadcast_throttle %s is negative", c.Server.BroadcastThrottle)
	}
	if err := Diff(Settings{}, c.Indicator).Validate(); err != nil {
		return fmt.Errorf("indicator: %w", err)
	}
	if c.Mock.Interval < 0 {
		return fmt.Errorf("mock.interval %s is negative", c.Mock.Interval)
	}
	return nil
}

// NewLogger builds the process logger described by the log section.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if l.Level != "" {
		if err := level.UnmarshalText([]byte(l.Level)); err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(l.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log.format: unknown format %q", l.Format)
	}
}
