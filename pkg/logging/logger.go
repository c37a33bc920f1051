// Package logging configures the process-wide zerolog logger and hands out
// per-component child loggers.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component names used across the module.
const (
	ComponentClient     = "bgg-client"
	ComponentGate       = "gate"
	ComponentRateLimit  = "ratelimit"
	ComponentPagination = "pagination"
	ComponentFanOut     = "fanout"
	ComponentProxy      = "bgg-proxy"
	ComponentConfig     = "config"
)

// Config holds logger configuration.
type Config struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string

	// Pretty switches from JSON lines to zerolog's console writer.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns JSON output at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Output: os.Stderr,
	}
}

// Setup installs a timestamped logger as the global zerolog logger and
// returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger derives a child of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return WithComponent(log.Logger, component)
}

// WithComponent tags base with component. base must not carry a component
// field already.
func WithComponent(base zerolog.Logger, component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}

// Level guidelines:
//
// Debug: capacity waits at the gates (rate-throttled), page and location
// dispatch, decode details.
//
// Info: window waits (rate-throttled), pagination and diffusion summaries,
// config reloads, proxy startup.
//
// Warn: every retry (status_code, url, attempt, backoff), skipped pages and
// fan-out locations, rejected config reloads.
//
// Error: retries exhausted, failed index or first-page requests.
//
// Context fields: url, status_code, attempt, backoff, error_class, page,
// total_pages, category, in_flight, limit, wait.
