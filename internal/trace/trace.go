// Package trace provides nil-safe wrappers over log/slog.
//
// All library logging goes through these helpers so that a nil logger is
// a supported, zero-cost configuration. Errors are returned, not logged;
// trace is for operation boundaries and debug breadcrumbs.
package trace

import (
	"context"
	"log/slog"
	"time"
)

// Debug logs at Debug level if the logger is non-nil and enabled.
//
// Attrs are evaluated at the call site even when logging is disabled, so
// keep them cheap; use [DebugLazy] for computed attributes.
func Debug(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

// DebugLazy logs at Debug level with lazily-computed attributes. The fn is
// not called when logging is disabled.
func DebugLazy(ctx context.Context, logger *slog.Logger, msg string, fn func() []slog.Attr) {
	if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	logger.LogAttrs(ctx, slog.LevelDebug, msg, fn()...)
}

// Warn logs at Warn level if the logger is non-nil and enabled.
func Warn(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	if logger == nil || !logger.Enabled(ctx, slog.LevelWarn) {
		return
	}
	logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

// Op represents an in-flight logged operation started by [Begin].
type Op struct {
	ctx    context.Context
	logger *slog.Logger
	name   string
	start  time.Time
}

// Begin logs the start of an operation at Debug level and returns an Op
// whose End method logs completion with duration and outcome.
//
//	op := trace.Begin(ctx, logger, "anf.parse", slog.String("fn", name))
//	var retErr error
//	defer func() { op.End(retErr) }()
func Begin(ctx context.Context, logger *slog.Logger, name string, attrs ...slog.Attr) Op {
	Debug(ctx, logger, name+" begin", attrs...)
	return Op{ctx: ctx, logger: logger, name: name, start: time.Now()}
}

// End logs the completion of the operation. A non-nil err logs at Warn
// with the error; otherwise completion logs at Debug.
func (o Op) End(err error) {
	if o.logger == nil {
		return
	}
	dur := slog.Duration("duration", time.Since(o.start))
	if err != nil {
		Warn(o.ctx, o.logger, o.name+" failed", dur, slog.String("error", err.Error()))
		return
	}
	Debug(o.ctx, o.logger, o.name+" end", dur)
}
