// Package logging configures the process-wide zerolog logger. Commands call
// ConfigureRuntime once at startup; tests call ConfigureTests or build their
// own logger with New.
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
	"github.com/scriptmirror/scriptmirror/internal/branding"
)

// Profile selects the baseline configuration before env overrides apply.
type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config controls the shape of the logger.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	JSON      bool
	Out       io.Writer
}

var configureOnce sync.Once

// ConfigureRuntime installs the runtime logger as zerolog's global logger.
func ConfigureRuntime() zerolog.Logger {
	return Configure(ProfileRuntime)
}

// ConfigureTests installs a quiet, timestamp-free logger.
func ConfigureTests() zerolog.Logger {
	return Configure(ProfileTest)
}

// Configure builds the logger for profile once per process and returns the
// global logger.
func Configure(profile Profile) zerolog.Logger {
	configureOnce.Do(func() {
		cfg := defaultConfig(profile)
		applyEnvOverrides(&cfg)
		log.Logger = New(cfg)
		zerolog.SetGlobalLevel(cfg.Level)
	})
	return log.Logger
}

// New builds a logger from cfg without touching global state.
func New(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	if !cfg.JSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    cfg.NoColor,
			TimeFormat: time.RFC3339,
		}
	}
	ctx := zerolog.New(out).Level(cfg.Level).With().Str("component", branding.LogTag())
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

// Nop returns a disabled logger for callers that were not handed one.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func defaultConfig(profile Profile) Config {
	switch profile {
	case ProfileTest:
		return Config{Level: zerolog.WarnLevel, NoColor: true}
	default:
		return Config{Level: zerolog.InfoLevel, Timestamp: true}
	}
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(branding.EnvVar("log_level"))); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(branding.EnvVar("log_nocolor"))); ok {
		cfg.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(branding.EnvVar("log_json"))); ok {
		cfg.JSON = v
	}
	if v, ok := parseBool(os.Getenv(branding.EnvVar("log_timestamp"))); ok {
		cfg.Timestamp = v
	}
}

// ParseLevel maps a user-supplied level name to a zerolog level. The second
// return is false for empty or unknown input.
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
