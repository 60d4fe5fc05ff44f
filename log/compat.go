// Package log is RTC's structured logging shim: it re-exports the slog-based
// luxfi/log API that the rest of the module logs through, plus the handler
// helpers cmd/rtcd wires up at startup.
package log

import (
	"context"
	"io"
	"log/slog"

	luxlog "github.com/luxfi/log"
)

// Re-export types from luxfi/log.
type (
	Logger = luxlog.Logger
)

const (
	// Level constants - use slog.Level values directly to avoid conflicts
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelCrit  slog.Level = 12
)

// Re-export functions from luxfi/log.
var (
	New  = luxlog.New
	Root = luxlog.Root
)

// Global logging functions, for call sites that don't hold their own Logger.
func Trace(msg string, ctx ...interface{}) { luxlog.Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { luxlog.Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { luxlog.Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { luxlog.Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { luxlog.Root().Error(msg, ctx...) }
func Crit(msg string, ctx ...interface{})  { luxlog.Root().Crit(msg, ctx...) }

func Enabled(ctx context.Context, level slog.Level) bool {
	return luxlog.Root().Enabled(ctx, level)
}

// LvlFromString returns the level matching a flag value such as "debug".
func LvlFromString(lvlString string) (slog.Level, error) {
	level, err := luxlog.ToLevel(lvlString)
	return slog.Level(level), err
}

// LevelString returns a lowercase name for l, for log line formatting.
func LevelString(l slog.Level) string {
	return luxlog.Level(l).LowerString()
}

// SetDefault sets the default logger used by Trace/Debug/.../Crit.
func SetDefault(l Logger) {
	luxlog.SetDefault(l)
}

// NewLogger returns luxfi/log's root logger. h is not used: filtering
// configured on h (such as a GlogHandler's verbosity) does not apply to the
// returned logger.
func NewLogger(h slog.Handler) Logger {
	return luxlog.Root()
}

// DiscardHandler returns a handler that drops every record, for tests that
// want a Logger but no output.
func DiscardHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, nil)
}

// NewTerminalHandler returns a handler writing human-readable lines to w.
// useColor is accepted for call-site compatibility with cmd/rtcd's flag
// wiring; RTC does not color-code its terminal output.
func NewTerminalHandler(w io.Writer, useColor bool) slog.Handler {
	return slog.NewTextHandler(w, nil)
}