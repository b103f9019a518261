// Package logging configures the process-wide zerolog logger.
//
// Library packages log through log.Logger with a "component" field; the
// command decides where that output goes. The interactive UI owns the
// terminal, so it points the logger at a file from OpenFile.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a level name as accepted from LOG_LEVEL or --log-level.
type LogLevel string

// Supported level names. Matching is case-insensitive.
const (
	LevelDebug    LogLevel = "debug"
	LevelInfo     LogLevel = "info"
	LevelWarn     LogLevel = "warn"
	LevelError    LogLevel = "error"
	LevelDisabled LogLevel = "disabled"
)

// levels maps accepted names, including aliases, to zerolog levels.
var levels = map[string]zerolog.Level{
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"disabled": zerolog.Disabled,
	"off":      zerolog.Disabled,
}

// Config selects level, format and sink.
type Config struct {
	Level LogLevel

	// Pretty switches from JSON lines to zerolog's console format.
	Pretty bool

	// Output defaults to os.Stderr when nil.
	Output io.Writer
}

// DefaultConfig logs JSON at info level to stderr.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Output: os.Stderr}
}

// Setup installs a logger built from cfg as log.Logger and returns it.
// Colors are only used when writing console output to stderr.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, NoColor: out != os.Stderr}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// OpenFile opens path for appending, creating missing parent directories.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// parseLevel falls back to info for unknown names.
func parseLevel(level LogLevel) zerolog.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(string(level)))]; ok {
		return l
	}
	return zerolog.InfoLevel
}

// NewLogger returns the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Levels used across the module:
//
//	debug  request flow, shared in-flight requests, page fetch start and
//	       append, responses dropped for an abandoned query
//	info   query set, result set reset or exhausted, startup and shutdown
//	warn   catalog non-2xx or undecodable response, view state save failure
//	error  catalog transport failure, configuration errors
//
// Common fields: component (catalog-client, pagination, state, tui, cli),
// query, page, total_pages, error_class, state.
