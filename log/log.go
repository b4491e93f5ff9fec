// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides structured, leveled logging on top of log/slog.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

const (
	// LevelTrace sits below slog's debug level.
	LevelTrace = slog.Level(-8)

	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Logger writes key/value annotated records.
type Logger interface {
	// With returns a new Logger that has this logger's attributes plus the given attributes.
	With(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

// rootHandler is resolved at write time, so loggers created before SetDefault
// pick up the configured handler. The handler is boxed so stores of different
// concrete handler types keep atomic.Value's consistent-type requirement.
type handlerBox struct{ handler slog.Handler }

var rootHandler atomic.Value

func init() {
	rootHandler.Store(handlerBox{DiscardHandler()})
}

type logger struct {
	attrs []any
}

func (l *logger) With(ctx ...any) Logger {
	attrs := make([]any, 0, len(l.attrs)+len(ctx))
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, ctx...)
	return &logger{attrs}
}

func (l *logger) write(level slog.Level, msg string, ctx ...any) {
	handler := rootHandler.Load().(handlerBox).handler
	slog.New(handler).With(l.attrs...).Log(context.Background(), level, msg, ctx...)
}

func (l *logger) Trace(msg string, ctx ...any) { l.write(LevelTrace, msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(LevelDebug, msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(LevelInfo, msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(LevelWarn, msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.write(LevelError, msg, ctx...) }

// SetDefault sets the handler of the root logger.
func SetDefault(handler slog.Handler) {
	rootHandler.Store(handlerBox{handler})
}

// Root returns the root logger.
func Root() Logger {
	return &logger{}
}

// WithContext returns a logger derived from the root logger with the given attributes.
func WithContext(ctx ...any) Logger {
	return Root().With(ctx...)
}

// DiscardHandler returns a no-op handler.
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

type discardHandler struct{}

func (h *discardHandler) Handle(_ context.Context, _ slog.Record) error { return nil }
func (h *discardHandler) Enabled(_ context.Context, _ slog.Level) bool  { return false }
func (h *discardHandler) WithGroup(_ string) slog.Handler               { return h }
func (h *discardHandler) WithAttrs(_ []slog.Attr) slog.Handler          { return h }

// LogfmtHandlerWithLevel returns a logfmt-style handler filtered by the given level var.
func LogfmtHandlerWithLevel(wr io.Writer, level *slog.LevelVar) slog.Handler {
	return slog.NewTextHandler(wr, &slog.HandlerOptions{Level: level})
}

// JSONHandlerWithLevel returns a JSON handler filtered by the given level var.
func JSONHandlerWithLevel(wr io.Writer, level *slog.LevelVar) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{Level: level})
}

// StderrHandler returns a logfmt handler to stderr at info level.
func StderrHandler() slog.Handler {
	var lvl slog.LevelVar
	lvl.Set(LevelInfo)
	return LogfmtHandlerWithLevel(os.Stderr, &lvl)
}
