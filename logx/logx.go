// Package logx adapts log/slog to the middleware.Logger interface. Tool
// servers own stdout for protocol traffic, so all log output goes to
// stderr as JSON.
package logx

import (
	"io"
	"log/slog"
	"os"

	"github.com/toolrpc/toolrpc/middleware"
)

// Logger wraps an slog.Logger to satisfy middleware.Logger.
type Logger struct {
	slog *slog.Logger
}

// Option configures a Logger.
type Option func(*options)

type options struct {
	out   io.Writer
	level slog.Level
}

// WithOutput sets the log destination. Defaults to stderr.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithLevel sets the minimum log level. Defaults to info.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// New creates a JSON logger tagged with the server name.
func New(serverName string, opts ...Option) *Logger {
	o := &options{
		out:   os.Stderr,
		level: slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(o)
	}

	handler := slog.NewJSONHandler(o.out, &slog.HandlerOptions{Level: o.level})
	return &Logger{
		slog: slog.New(handler).With("server", serverName),
	}
}

// Wrap adapts an existing slog.Logger.
func Wrap(l *slog.Logger) *Logger {
	return &Logger{slog: l}
}

func (l *Logger) Debug(msg string, fields ...middleware.Field) {
	l.slog.Debug(msg, attrs(fields)...)
}

func (l *Logger) Info(msg string, fields ...middleware.Field) {
	l.slog.Info(msg, attrs(fields)...)
}

func (l *Logger) Warn(msg string, fields ...middleware.Field) {
	l.slog.Warn(msg, attrs(fields)...)
}

func (l *Logger) Error(msg string, fields ...middleware.Field) {
	l.slog.Error(msg, attrs(fields)...)
}

func attrs(fields []middleware.Field) []any {
	out := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}

var _ middleware.Logger = (*Logger)(nil)
