package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// sinkHandler writes each record to every sink whose level accepts it. The
// daemon uses it for the console plus the rotating file, and for the
// per-run diagnostic file.
type sinkHandler struct {
	sinks []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	var sinks []slog.Handler
	for _, h := range handlers {
		if h != nil {
			sinks = append(sinks, h)
		}
	}
	switch len(sinks) {
	case 0:
		return NoopHandler{}
	case 1:
		return sinks[0]
	}
	return &sinkHandler{sinks: sinks}
}

func (h *sinkHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sink := range h.sinks {
		if sink.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle keeps writing to the remaining sinks when one fails, so a full disk
// under log_dir does not silence the console.
func (h *sinkHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	last := len(h.sinks) - 1
	for i, sink := range h.sinks {
		if !sink.Enabled(ctx, record.Level) {
			continue
		}
		rec := record
		if i < last {
			rec = record.Clone()
		}
		if err := sink.Handle(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *sinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(sink slog.Handler) slog.Handler { return sink.WithAttrs(attrs) })
}

func (h *sinkHandler) WithGroup(name string) slog.Handler {
	return h.each(func(sink slog.Handler) slog.Handler { return sink.WithGroup(name) })
}

func (h *sinkHandler) each(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := make([]slog.Handler, len(h.sinks))
	for i, sink := range h.sinks {
		next[i] = fn(sink)
	}
	return &sinkHandler{sinks: next}
}

// TeeLogger duplicates log output from base into the provided handlers.
func TeeLogger(base *slog.Logger, handlers ...slog.Handler) *slog.Logger {
	if base == nil {
		return slog.New(newFanoutHandler(handlers...))
	}
	return slog.New(newFanoutHandler(append([]slog.Handler{base.Handler()}, handlers...)...))
}

// DiagnosticLogPath is where a diagnostic run writes its debug log.
func DiagnosticLogPath(logDir, runID string) string {
	return filepath.Join(logDir, "autounzip-debug-"+runID+".log")
}

// WithDiagnosticFile tees every record from base, down to debug level, into
// a per-run JSON file under logDir. The caller closes the returned file when
// the run ends.
func WithDiagnosticFile(base *slog.Logger, logDir, runID string) (*slog.Logger, io.Closer, error) {
	path := DiagnosticLogPath(logDir, runID)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open diagnostic log: %w", err)
	}
	logger := TeeLogger(base, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("diagnostic logging enabled",
		String(FieldEventType, "diagnostic_enabled"),
		String("path", path),
	)
	return logger, file, nil
}
