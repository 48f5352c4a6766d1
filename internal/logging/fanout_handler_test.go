package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Fatal("expected the single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsPerHandlerLevel(t *testing.T) {
	var console, file bytes.Buffer
	h := newFanoutHandler(
		slog.NewJSONHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("fanout should be enabled when any handler accepts the level")
	}

	logger := slog.New(h).With("archive", "/in/a.zip").WithGroup("extract")
	logger.Debug("entry written", "name", "a.txt")

	if console.Len() != 0 {
		t.Fatalf("warn handler should not receive debug output, got %s", console.String())
	}
	out := file.String()
	if !strings.Contains(out, `"archive":"/in/a.zip"`) || !strings.Contains(out, `"extract":{"name":"a.txt"}`) {
		t.Fatalf("expected attrs and group in file output, got %s", out)
	}
}

func TestTeeLoggerDuplicatesOutput(t *testing.T) {
	var base, extra bytes.Buffer
	logger := TeeLogger(slog.New(slog.NewJSONHandler(&base, nil)), slog.NewJSONHandler(&extra, nil))
	logger.Info("archive detected")
	if base.Len() == 0 || extra.Len() == 0 {
		t.Fatalf("expected output in both handlers, got %q and %q", base.String(), extra.String())
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestFanoutHandlerKeepsWritingAfterSinkFailure(t *testing.T) {
	var console bytes.Buffer
	h := newFanoutHandler(
		failingHandler{slog.NewJSONHandler(&bytes.Buffer{}, nil)},
		slog.NewJSONHandler(&console, nil),
	)
	logger := slog.New(h)
	logger.Info("archive detected")
	if !strings.Contains(console.String(), "archive detected") {
		t.Fatalf("console sink should still receive the record, got %q", console.String())
	}
	var rec slog.Record
	rec.Message = "direct"
	if err := h.Handle(context.Background(), rec); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected sink error to be returned, got %v", err)
	}
}

func TestWithDiagnosticFileCapturesDebug(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&console, &slog.HandlerOptions{Level: slog.LevelInfo}))

	logger, closer, err := WithDiagnosticFile(base, dir, "run-1")
	if err != nil {
		t.Fatalf("WithDiagnosticFile: %v", err)
	}
	logger.Debug("member written", "name", "a.txt")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(DiagnosticLogPath(dir, "run-1"))
	if err != nil {
		t.Fatalf("read diagnostic log: %v", err)
	}
	if !strings.Contains(string(data), "member written") || !strings.Contains(string(data), "diagnostic_enabled") {
		t.Fatalf("diagnostic log missing records: %s", data)
	}
	if strings.Contains(console.String(), "member written") {
		t.Fatalf("info console should not receive debug output, got %s", console.String())
	}

	if _, _, err := WithDiagnosticFile(base, dir+"/missing/dir", "run-2"); err == nil {
		t.Fatal("expected error for missing log directory")
	}
}

func TestRunIDHandlerStampsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newRunIDHandler(slog.NewJSONHandler(&buf, nil), "run-abc")).With("extra", "value")
	logger.Info("tick")

	out := buf.String()
	if !strings.Contains(out, `"run_id":"run-abc"`) || !strings.Contains(out, `"extra":"value"`) {
		t.Fatalf("expected run_id and extra attrs, got %s", out)
	}
	if _, ok := newRunIDHandler(nil, "x").(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for nil base")
	}
}
