package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/danmuck/tramctl/internal/observability"
	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "TRAMCTL_LOG_LEVEL"
	EnvLogTimestamp = "TRAMCTL_LOG_TIMESTAMP"
	EnvLogNoColor   = "TRAMCTL_LOG_NOCOLOR"
	EnvLogBypass    = "TRAMCTL_LOG_BYPASS"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config is the resolved logging setup for one process.
type Config struct {
	App       string
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	Bypass    bool
	Output    io.Writer
}

// Options carries caller overrides applied on top of the profile defaults.
// Environment variables still win over both.
type Options struct {
	App    string
	Level  string
	Output io.Writer
}

var configureOnce sync.Once

func ConfigureRuntime(opts Options) {
	Configure(ProfileRuntime, opts)
}

func ConfigureTests() {
	Configure(ProfileTest, Options{App: "test"})
}

// Configure installs the global logger once per process. Later calls are no-ops.
func Configure(profile Profile, opts Options) {
	configureOnce.Do(func() {
		cfg := Resolve(profile, opts)
		apply(cfg)
	})
}

// Resolve computes the Config for profile, opts and the current environment.
func Resolve(profile Profile, opts Options) Config {
	cfg := defaultConfig(profile)
	if opts.App != "" {
		cfg.App = opts.App
	}
	if lvl, ok := ParseLevel(opts.Level); ok {
		cfg.Level = lvl
	}
	if opts.Output != nil {
		cfg.Output = opts.Output
	}
	applyEnvOverrides(&cfg)
	return cfg
}

func apply(cfg Config) {
	level := cfg.Level
	out := cfg.Output
	if cfg.Bypass {
		level = zerolog.Disabled
		out = io.Discard
	}
	zerolog.SetGlobalLevel(level)
	observability.InitLogger(cfg.App, observability.LoggerOptions{
		Output:    out,
		Level:     level,
		Timestamp: cfg.Timestamp,
		NoColor:   cfg.NoColor,
	})
}

func defaultConfig(profile Profile) Config {
	cfg := Config{App: "tramctl", Output: os.Stderr}
	switch profile {
	case ProfileTest:
		cfg.Level = zerolog.DebugLevel
		cfg.Timestamp = false
	default:
		cfg.Level = zerolog.InfoLevel
		cfg.Timestamp = true
	}
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogBypass)); ok {
		cfg.Bypass = v
	}
}

// ParseLevel maps a level name onto a zerolog level. Empty and unrecognized
// names report false.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
