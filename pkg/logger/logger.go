// Package logger provides the global structured logger used across avagen-runner.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.Mutex
	base    = zerolog.Nop()
	rotator *lumberjack.Logger
	writer  io.Writer = io.Discard
)

// Options configures the global logger.
type Options struct {
	Path       string // Log file path (empty = no file output)
	Level      string // debug, info, warn, error
	MaxSizeMB  int    // Rotate after this many megabytes
	MaxBackups int    // Rotated files to keep
	MaxAgeDays int    // Days to keep rotated files
	Console    bool   // Also write human-readable output to stderr
}

// Init initializes the global logger with the specified log file path.
func Init(logPath string) error {
	return Configure(Options{Path: logPath, Level: "debug"})
}

// Configure replaces the global logger according to opts.
func Configure(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	var writers []io.Writer
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		rotator = &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 7),
		}
		writers = append(writers, rotator)
	}
	if opts.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	base = zerolog.New(writer).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()
	return nil
}

// SetOutput sends all log output to w at debug level. Intended for tests and
// for callers that manage their own sinks.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	writer = w
	base = zerolog.New(w).With().Timestamp().Logger()
}

// SetLevel changes the minimum level of the global logger.
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	base = base.Level(ParseLevel(level))
}

// ParseLevel maps a level name to a zerolog level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	base = zerolog.Nop()
	writer = io.Discard
}

func closeLocked() {
	if rotator != nil {
		rotator.Close()
		rotator = nil
	}
}

// Component returns a logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base.With().Str("component", name).Logger()
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	current().Info().Msgf(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	current().Debug().Msgf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	current().Error().Msgf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	current().Warn().Msgf(format, v...)
}

// GetWriter returns the underlying writer for use by drivers.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return writer
}

// current returns a copy of the base logger; the copy is addressable, which
// zerolog's level methods need.
func current() *zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	l := base
	return &l
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
