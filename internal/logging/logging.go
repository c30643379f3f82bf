// Package logging provides structured logging using Go's slog package.
//
// Each opened database owns its own logger rather than sharing a global
// one: multiple databases opened by one process log to their own files
// without interleaving, distinguished by a per-instance id attribute.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
	// LevelOff disables the console sink entirely.
	LevelOff
)

// Format represents a log output format.
type Format int

const (
	// FormatText outputs logs in human-readable text format.
	FormatText Format = iota
	// FormatJSON outputs logs in JSON format.
	FormatJSON
)

// LogFileName is the file every database logger writes next to its
// database file.
const LogFileName = "psr_database.log"

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func handlerOpts(level Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: slogLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}
}

// New returns a logger writing to w with the specified level and format.
func New(level Level, format Format, w io.Writer) *slog.Logger {
	return slog.New(newHandler(level, format, w))
}

func newHandler(level Level, format Format, w io.Writer) slog.Handler {
	if format == FormatJSON {
		return slog.NewJSONHandler(w, handlerOpts(level))
	}
	return slog.NewTextHandler(w, handlerOpts(level))
}

// ForDatabase builds the logger for one database instance: a console sink
// at consoleLevel in consoleFormat plus a debug-level text file sink
// writing LogFileName into the database's directory (the working
// directory for in-memory databases). If the log file cannot be created,
// logging degrades to console-only with a warning, and the database stays
// usable.
//
// The returned logger carries a unique "instance" attribute so that logs
// from concurrently open databases can be told apart.
func ForDatabase(dbPath string, consoleLevel Level, consoleFormat Format) *slog.Logger {
	var handlers []slog.Handler
	if consoleLevel != LevelOff {
		handlers = append(handlers, newHandler(consoleLevel, consoleFormat, os.Stderr))
	}

	file, err := os.OpenFile(logFilePath(dbPath), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err == nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts(LevelDebug)))
	}

	logger := slog.New(multiHandler(handlers)).With("instance", uuid.NewString())
	if err != nil {
		logger.Warn("failed to create log file, logging to console only", "error", err)
	}
	return logger
}

// logFilePath places the log file next to the database file. In-memory or
// pathless databases log into the current working directory.
func logFilePath(dbPath string) string {
	if dbPath == ":memory:" || dbPath == "" {
		return LogFileName
	}
	dir := filepath.Dir(dbPath)
	return filepath.Join(dir, LogFileName)
}

// multiHandler fans a record out to every sink whose level accepts it.
type multiHandler []slog.Handler

func (h multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, hh := range h {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(multiHandler, len(h))
	for i, hh := range h {
		out[i] = hh.WithAttrs(attrs)
	}
	return out
}

func (h multiHandler) WithGroup(name string) slog.Handler {
	out := make(multiHandler, len(h))
	for i, hh := range h {
		out[i] = hh.WithGroup(name)
	}
	return out
}
