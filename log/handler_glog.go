package log

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// GlogHandler is a log handler with a glog-style verbosity ceiling: records
// below the configured level are dropped before reaching the wrapped
// handler. cmd/rtcd builds one from --log-level and passes it to NewLogger,
// which does not use it, so the level does not filter the process's log
// output (spec SPEC_FULL §4.10); the teacher's original handler
// also carried a Vmodule per-callsite pattern matcher, but its Handle method
// never consulted the compiled patterns, so that machinery never did
// anything even there. Trimmed here to the subset Handle actually applies.
type GlogHandler struct {
	handler slog.Handler // The wrapped handler

	level atomic.Int32 // Current log level
}

// NewGlogHandler creates a new glog handler wrapping the given handler.
func NewGlogHandler(h slog.Handler) *GlogHandler {
	return &GlogHandler{
		handler: h,
	}
}

// Handle implements slog.Handler
func (h *GlogHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Enabled(ctx, r.Level) {
		return nil
	}
	return h.handler.Handle(ctx, r)
}

// Enabled implements slog.Handler
func (h *GlogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.Level(h.level.Load())
}

// WithAttrs implements slog.Handler
func (h *GlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &GlogHandler{
		handler: h.handler.WithAttrs(attrs),
		level:   h.level,
	}
}

// WithGroup implements slog.Handler
func (h *GlogHandler) WithGroup(name string) slog.Handler {
	return &GlogHandler{
		handler: h.handler.WithGroup(name),
		level:   h.level,
	}
}

// Verbosity sets the glog verbosity ceiling.
func (h *GlogHandler) Verbosity(level slog.Level) {
	h.level.Store(int32(level))
}
