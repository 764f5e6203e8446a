// Package logging configures zerolog for the client library and the proxy.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level to output: debug, info, warn, error or disabled.
	Level string

	// Format is FormatJSON (default) or FormatConsole for human-readable output.
	Format string

	// Service is attached to every event when set.
	Service string

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: FormatJSON,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if strings.EqualFold(cfg.Format, FormatConsole) {
		output = zerolog.ConsoleWriter{Out: output}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	log.Logger = logger
	return logger
}

// ParseLevel converts a level name to a zerolog.Level. Unknown or empty
// names select info.
func ParseLevel(level string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	parsed, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return parsed
}

// NewLogger creates a logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Level guidelines used across the module:
//
// Debug: cache hit/miss, cache key, each upstream attempt and its URL
// Info: cache cleared, proxy startup/shutdown
// Warn: primary mirror failed and the fallback is tried; cache read/write errors
// Error: both mirrors failed; proxy configuration errors
//
// Context fields:
//   - endpoint: mirror name (jsdelivr, cloudflare)
//   - fallback: mirror tried after the preferred one failed
//   - url: full upstream URL
//   - status: HTTP status code
//   - error_class: client, server, network, decode, unexpected
//   - cache_key: key from cache.BuildKey
//   - date, path: query fields
