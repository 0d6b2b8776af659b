package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tramctl/internal/ingest"
	"github.com/danmuck/tramctl/internal/logging"
	"github.com/danmuck/tramctl/internal/protocol/session"
)

// Render modes.
const (
	RenderText = "text"
	RenderTUI  = "tui"
	RenderNone = "none"
)

type SourceConfig struct {
	Host               string
	Port               int
	ConnectTimeout     time.Duration
	ReadTimeout        time.Duration
	Reconnect          bool
	MaxConnectAttempts int
	ReadBuffer         int
}

// Address joins Host and Port.
func (s SourceConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type DecodeConfig struct {
	OnFrameError ingest.FramePolicy
	OnValueError ingest.ValuePolicy
}

type RenderConfig struct {
	Mode string
}

type StatusConfig struct {
	Addr string
	// Token, when set, is required as a bearer token on every route but /health.
	Token string
}

type LogConfig struct {
	Level string
	File  string
}

// Config is the resolved tramctl configuration.
type Config struct {
	Source SourceConfig
	Decode DecodeConfig
	Render RenderConfig
	Status StatusConfig
	Log    LogConfig
}

func Default() Config {
	sess := session.DefaultConfig()
	return Config{
		Source: SourceConfig{
			Host:               "127.0.0.1",
			Port:               8081,
			ConnectTimeout:     sess.ConnectTimeout,
			ReadTimeout:        sess.ReadTimeout,
			MaxConnectAttempts: sess.MaxConnectAttempts,
			ReadBuffer:         sess.ReadBuffer,
		},
		Decode: DecodeConfig{
			OnFrameError: ingest.FrameAbort,
			OnValueError: ingest.ValueSkip,
		},
		Render: RenderConfig{Mode: RenderText},
		Log:    LogConfig{Level: "info"},
	}
}

// Ingest converts c into the feed client configuration.
func (c Config) Ingest() ingest.Config {
	cfg := ingest.DefaultConfig()
	cfg.Address = c.Source.Address()
	cfg.Reconnect = c.Source.Reconnect
	cfg.OnFrameError = c.Decode.OnFrameError
	cfg.OnValueError = c.Decode.OnValueError
	cfg.Session.ConnectTimeout = c.Source.ConnectTimeout
	cfg.Session.ReadTimeout = c.Source.ReadTimeout
	cfg.Session.MaxConnectAttempts = c.Source.MaxConnectAttempts
	cfg.Session.ReadBuffer = c.Source.ReadBuffer
	return cfg
}

type fileConfig struct {
	Source struct {
		Host               string `toml:"host"`
		Port               int    `toml:"port"`
		ConnectTimeout     string `toml:"connect_timeout"`
		ReadTimeout        string `toml:"read_timeout"`
		Reconnect          bool   `toml:"reconnect"`
		MaxConnectAttempts int    `toml:"max_connect_attempts"`
		ReadBuffer         int    `toml:"read_buffer"`
	} `toml:"source"`
	Decode struct {
		OnFrameError string `toml:"on_frame_error"`
		OnValueError string `toml:"on_value_error"`
	} `toml:"decode"`
	Render struct {
		Mode string `toml:"mode"`
	} `toml:"render"`
	Status struct {
		Addr  string `toml:"addr"`
		Token string `toml:"token"`
	} `toml:"status"`
	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
}

// Load reads path over Default. Keys absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("source", "host") {
		cfg.Source.Host = strings.TrimSpace(raw.Source.Host)
	}
	if meta.IsDefined("source", "port") {
		cfg.Source.Port = raw.Source.Port
	}
	if meta.IsDefined("source", "connect_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Source.ConnectTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse source.connect_timeout: %w", err)
		}
		cfg.Source.ConnectTimeout = d
	}
	if meta.IsDefined("source", "read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Source.ReadTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse source.read_timeout: %w", err)
		}
		cfg.Source.ReadTimeout = d
	}
	if meta.IsDefined("source", "reconnect") {
		cfg.Source.Reconnect = raw.Source.Reconnect
	}
	if meta.IsDefined("source", "max_connect_attempts") {
		cfg.Source.MaxConnectAttempts = raw.Source.MaxConnectAttempts
	}
	if meta.IsDefined("source", "read_buffer") {
		cfg.Source.ReadBuffer = raw.Source.ReadBuffer
	}

	if meta.IsDefined("decode", "on_frame_error") {
		p, err := ingest.ParseFramePolicy(raw.Decode.OnFrameError)
		if err != nil {
			return Config{}, err
		}
		cfg.Decode.OnFrameError = p
	}
	if meta.IsDefined("decode", "on_value_error") {
		p, err := ingest.ParseValuePolicy(raw.Decode.OnValueError)
		if err != nil {
			return Config{}, err
		}
		cfg.Decode.OnValueError = p
	}

	if meta.IsDefined("render", "mode") {
		cfg.Render.Mode = strings.ToLower(strings.TrimSpace(raw.Render.Mode))
	}
	if meta.IsDefined("status", "addr") {
		cfg.Status.Addr = strings.TrimSpace(raw.Status.Addr)
	}
	if meta.IsDefined("status", "token") {
		cfg.Status.Token = strings.TrimSpace(raw.Status.Token)
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "file") {
		cfg.Log.File = strings.TrimSpace(raw.Log.File)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// ParsePort parses a TCP port in 1..65535.
func ParsePort(raw string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", raw)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Source.Host) == "" {
		return fmt.Errorf("source.host is required")
	}
	if cfg.Source.Port < 1 || cfg.Source.Port > 65535 {
		return fmt.Errorf("source.port %d out of range 1-65535", cfg.Source.Port)
	}
	if cfg.Source.ConnectTimeout <= 0 {
		return fmt.Errorf("source.connect_timeout must be positive")
	}
	if cfg.Source.ReadTimeout <= 0 {
		return fmt.Errorf("source.read_timeout must be positive")
	}
	if cfg.Source.MaxConnectAttempts < 0 {
		return fmt.Errorf("source.max_connect_attempts must be >= 0")
	}
	if cfg.Source.ReadBuffer < 1 {
		return fmt.Errorf("source.read_buffer must be >= 1")
	}
	if _, err := ingest.ParseFramePolicy(string(cfg.Decode.OnFrameError)); err != nil {
		return err
	}
	if _, err := ingest.ParseValuePolicy(string(cfg.Decode.OnValueError)); err != nil {
		return err
	}
	switch cfg.Render.Mode {
	case RenderText, RenderTUI, RenderNone:
	default:
		return fmt.Errorf("render.mode %q must be one of text, tui, none", cfg.Render.Mode)
	}
	if cfg.Render.Mode == RenderNone && strings.TrimSpace(cfg.Status.Addr) == "" {
		return fmt.Errorf("render.mode none requires status.addr")
	}
	if cfg.Log.Level != "" {
		if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
			return fmt.Errorf("log.level %q not recognized", cfg.Log.Level)
		}
	}
	return nil
}
