// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "MMIODRV_LOG_LEVEL"
	EnvLogTimestamp = "MMIODRV_LOG_TIMESTAMP"
	EnvLogNoColor   = "MMIODRV_LOG_NOCOLOR"
	EnvLogJSON      = "MMIODRV_LOG_JSON"
)

// Profile selects the defaults a process starts from.
type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config is the resolved logger configuration.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	JSON      bool
}

var (
	configureOnce sync.Once
	base          zerolog.Logger
	output        = &switchWriter{w: os.Stderr}
)

// switchWriter lets the process redirect log output after configuration.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

// ConfigureRuntime configures logging for a command line run.
func ConfigureRuntime() zerolog.Logger {
	return Configure(ProfileRuntime, os.Stderr)
}

// ConfigureTests configures logging for test binaries, writing to w.
func ConfigureTests(w io.Writer) zerolog.Logger {
	return Configure(ProfileTest, w)
}

// Configure sets the global logger once per process and returns it. Later
// calls return the logger set by the first.
func Configure(profile Profile, w io.Writer) zerolog.Logger {
	configureOnce.Do(func() {
		cfg := DefaultConfig(profile)
		ApplyEnvOverrides(&cfg)
		output.set(w)
		base = New(cfg, output)
		log.Logger = base
		zerolog.SetGlobalLevel(cfg.Level)
	})

	return log.Logger
}

// Level returns the level the process was configured with, before any
// SetLevel.
func Level() zerolog.Level {
	return base.GetLevel()
}

// SetLevel changes the level of the global logger. zerolog filters on both
// the global and the logger level, so both move together.
func SetLevel(lvl zerolog.Level) zerolog.Logger {
	zerolog.SetGlobalLevel(lvl)
	log.Logger = base.Level(lvl)

	return log.Logger
}

// SetOutput redirects the configured logger to w.
func SetOutput(w io.Writer) {
	output.set(w)
}

// DefaultConfig returns the defaults of a profile.
func DefaultConfig(profile Profile) Config {
	switch profile {
	case ProfileTest:
		return Config{Level: zerolog.DebugLevel}
	default:
		return Config{Level: zerolog.InfoLevel, Timestamp: true}
	}
}

// New builds a logger from cfg without touching global state.
func New(cfg Config, w io.Writer) zerolog.Logger {
	if !cfg.JSON {
		w = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    cfg.NoColor,
			TimeFormat: time.TimeOnly,
		}
	}

	ctx := zerolog.New(w).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}

	return ctx.Logger()
}

// ApplyEnvOverrides applies the MMIODRV_LOG_* variables to cfg. Unset or
// unparsable values are ignored.
func ApplyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}

	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}

	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}

	if v, ok := parseBool(os.Getenv(EnvLogJSON)); ok {
		cfg.JSON = v
	}
}

// ParseLevel accepts zerolog level names plus a few aliases.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
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
