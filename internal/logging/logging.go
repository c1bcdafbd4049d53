// Package logging builds the process logger for hello-compute.
//
// Output goes to stderr as text. When a trace directory is configured, every
// record is also written as JSON into a size-rotated file inside it.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
)

// TraceFile is the log file name created inside the trace directory.
const TraceFile = "hello-compute.log"

// nopHandler silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// Nop returns a logger that discards everything.
func Nop() *slog.Logger { return slog.New(nopHandler{}) }

// Options controls New.
type Options struct {
	Level    slog.Level
	Stderr   io.Writer // Defaults to os.Stderr.
	TraceDir string    // Empty disables the trace file.
}

// Logger is a slog.Logger together with the resources backing it.
type Logger struct {
	*slog.Logger
	closer io.Closer
}

// Close flushes and closes the trace file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// New creates the process logger.
func New(opts Options) (*Logger, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: opts.Level}
	text := slog.NewTextHandler(stderr, hopts)

	if opts.TraceDir == "" {
		return &Logger{Logger: slog.New(text)}, nil
	}

	if err := os.MkdirAll(opts.TraceDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: create trace dir: %w", err)
	}
	file := &lumberjack.Logger{
		Filename: filepath.Join(opts.TraceDir, TraceFile),
		MaxSize:  10,
		Compress: true,
	}
	trace := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &Logger{
		Logger: slog.New(teeHandler{text, trace}),
		closer: file,
	}, nil
}

// teeHandler fans records out to several handlers, each applying its own level.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
