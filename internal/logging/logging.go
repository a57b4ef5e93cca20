// Package logging provides the four-level logger used by the route-map
// builder and adapters for the sinks it can write to.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// StandardLogger is a console-like sink. Each method takes a leading message
// followed by optional values, printed space-separated.
type StandardLogger interface {
	Error(msg any, args ...any)
	Warn(msg any, args ...any)
	Info(msg any, args ...any)
	Debug(msg any, args ...any)
	Log(msg any, args ...any)
}

// Logger is the builder's internal logger.
type Logger interface {
	Error(format string, args ...any)
	Warn(format string, args ...any)
	Info(format string, args ...any)
	Trace(format string, args ...any)
}

type level int

const (
	levelError level = iota
	levelWarn
	levelInfo
	levelTrace
)

var (
	labels = map[level]string{
		levelError: "error -",
		levelWarn:  "warn  -",
		levelInfo:  "info  -",
		levelTrace: "trace -",
	}
	colors = map[level]string{
		levelError: "\x1b[31m",
		levelWarn:  "\x1b[33m",
		levelInfo:  "\x1b[36m",
		levelTrace: "\x1b[35m",
	}
)

// Option configures Wrap.
type Option func(*wrapped)

// WithColor toggles ANSI coloring of level prefixes. Coloring is on unless
// NO_COLOR is set.
func WithColor(on bool) Option {
	return func(w *wrapped) { w.color = on }
}

// Wrap adapts a StandardLogger into a Logger. Error and warn go to the
// matching methods; info and trace both go to Log. A nil sink yields a
// logger that discards everything.
func Wrap(std StandardLogger, opts ...Option) Logger {
	if std == nil {
		return Nop()
	}
	_, noColor := os.LookupEnv("NO_COLOR")
	w := &wrapped{std: std, color: !noColor}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type wrapped struct {
	std   StandardLogger
	color bool
}

func (w *wrapped) prefix(l level) string {
	if !w.color {
		return labels[l]
	}
	// keep the padding outside the color span
	label := labels[l]
	name := strings.TrimRight(label, " -")
	return colors[l] + name + "\x1b[0m" + label[len(name):]
}

func (w *wrapped) Error(format string, args ...any) {
	w.std.Error(w.prefix(levelError), fmt.Sprintf(format, args...))
}

func (w *wrapped) Warn(format string, args ...any) {
	w.std.Warn(w.prefix(levelWarn), fmt.Sprintf(format, args...))
}

func (w *wrapped) Info(format string, args ...any) {
	w.std.Log(w.prefix(levelInfo), fmt.Sprintf(format, args...))
}

func (w *wrapped) Trace(format string, args ...any) {
	w.std.Log(w.prefix(levelTrace), fmt.Sprintf(format, args...))
}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }

type nop struct{}

func (nop) Error(string, ...any) {}
func (nop) Warn(string, ...any)  {}
func (nop) Info(string, ...any)  {}
func (nop) Trace(string, ...any) {}

// Console returns a StandardLogger that writes one line per call to w.
// Writes are serialized so concurrent routes never interleave lines.
func Console(w io.Writer) StandardLogger {
	return &console{w: w}
}

type console struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *console) print(msg any, args []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.w, append([]any{msg}, args...)...)
}

func (c *console) Error(msg any, args ...any) { c.print(msg, args) }
func (c *console) Warn(msg any, args ...any)  { c.print(msg, args) }
func (c *console) Info(msg any, args ...any)  { c.print(msg, args) }
func (c *console) Debug(msg any, args ...any) { c.print(msg, args) }
func (c *console) Log(msg any, args ...any)   { c.print(msg, args) }

// Slog returns a StandardLogger backed by a *slog.Logger. Log maps to
// slog's info level; Debug to debug.
func Slog(l *slog.Logger) StandardLogger {
	return slogSink{l: l}
}

type slogSink struct {
	l *slog.Logger
}

func (s slogSink) emit(lvl slog.Level, msg any, args []any) {
	parts := make([]string, 0, len(args)+1)
	for _, v := range append([]any{msg}, args...) {
		parts = append(parts, fmt.Sprint(v))
	}
	s.l.Log(context.Background(), lvl, strings.Join(parts, " "))
}

func (s slogSink) Error(msg any, args ...any) { s.emit(slog.LevelError, msg, args) }
func (s slogSink) Warn(msg any, args ...any)  { s.emit(slog.LevelWarn, msg, args) }
func (s slogSink) Info(msg any, args ...any)  { s.emit(slog.LevelInfo, msg, args) }
func (s slogSink) Debug(msg any, args ...any) { s.emit(slog.LevelDebug, msg, args) }
func (s slogSink) Log(msg any, args ...any)   { s.emit(slog.LevelInfo, msg, args) }

// Named returns the StandardLogger for a configured logger name: "console"
// writes to w, anything else (including "") is silent.
func Named(name string, w io.Writer) StandardLogger {
	if name == "console" {
		return Console(w)
	}
	return nil
}
