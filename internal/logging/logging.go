// Package logging builds the slog loggers used by the CLI, the TUI and the
// mock API, and carries a logger through a context.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures New.
type Options struct {
	Level  string    // debug, info, warn or error; empty means info
	Format string    // text or json; empty means text
	Output io.Writer // nil means os.Stderr
}

// ParseLevel maps a level name onto a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// New builds a logger from opts.
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: level}
	switch opts.Format {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(out, ho)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(out, ho)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", opts.Format)
}

// OpenFile opens (appending) the log file at path, creating its directory.
// The TUI logs here because stdout belongs to the screen.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Or returns l, or slog.Default when l is nil.
func Or(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

type loggerKey struct{}

// WithLogger returns a context carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger carried by ctx, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// LogHTTPRequest writes one line per served request. Server errors log at
// error level, client errors at warn.
func LogHTTPRequest(l *slog.Logger, method, path string, status int, durationMs float64, attrs ...slog.Attr) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	all := append([]slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("duration_ms", durationMs),
	}, attrs...)
	l.LogAttrs(context.Background(), level, "http request", all...)
}

// LogError logs msg with err attached.
func LogError(l *slog.Logger, msg string, err error, attrs ...slog.Attr) {
	l.LogAttrs(context.Background(), slog.LevelError, msg, append([]slog.Attr{slog.Any("error", err)}, attrs...)...)
}

// SafeClose closes c and logs a failure instead of returning it.
func SafeClose(l *slog.Logger, c io.Closer, what string) {
	if err := c.Close(); err != nil {
		LogError(l, "failed to close "+what, err)
	}
}
