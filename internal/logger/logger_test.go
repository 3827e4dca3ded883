package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewWithWriter_JSONKeys(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithModule("advisor").WithField("candidates", 3).Info("pipeline complete")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}

	if entry["message"] != "pipeline complete" {
		t.Errorf("message = %v, want %q", entry["message"], "pipeline complete")
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["module"] != "advisor" {
		t.Errorf("module = %v, want advisor", entry["module"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("timestamp key missing")
	}
}

func TestNewWithWriter_WarnLevelName(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.Warn("catalog refresh behind schedule")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if entry["level"] != "warning" {
		t.Errorf("level = %v, want warning", entry["level"])
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)

	log.Info("should be filtered")
	if buf.Len() != 0 {
		t.Errorf("info record emitted at warn level: %s", buf.String())
	}

	log.Error("should pass")
	if buf.Len() == 0 {
		t.Error("error record filtered at warn level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// collectingHandler records handled messages for handler composition tests.
type collectingHandler struct {
	mu       sync.Mutex
	messages []string
	level    slog.Level
}

func (h *collectingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *collectingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, r.Message)
	return nil
}

func (h *collectingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *collectingHandler) WithGroup(string) slog.Handler      { return h }

func (h *collectingHandler) got() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.messages...)
}

func TestMultiHandler_FanOut(t *testing.T) {
	a := &collectingHandler{level: slog.LevelDebug}
	b := &collectingHandler{level: slog.LevelError}

	log := NewWithHandler(NewMultiHandler(a, b, nil))
	log.Info("info record")
	log.Error("error record")

	if got := a.got(); len(got) != 2 {
		t.Errorf("handler a received %d records, want 2", len(got))
	}
	if got := b.got(); len(got) != 1 || got[0] != "error record" {
		t.Errorf("handler b received %v, want [error record]", got)
	}
}

func TestAsyncHandler_DeliversAndFlushes(t *testing.T) {
	sink := &collectingHandler{level: slog.LevelDebug}
	async := NewAsyncHandler(sink, AsyncOptions{BufferSize: 8})

	log := NewWithHandler(async)
	log.Info("queued record")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := async.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	got := sink.got()
	if len(got) != 1 || got[0] != "queued record" {
		t.Errorf("async sink received %v, want [queued record]", got)
	}

	// Second shutdown is a no-op.
	if err := async.Shutdown(context.Background()); err != nil {
		t.Errorf("repeated Shutdown() error = %v", err)
	}
}

func TestSetup_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	log, shutdown := Setup("info", &buf, ShippingOptions{})

	log.Info("hello")
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error = %v", err)
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("console output missing record: %s", buf.String())
	}
}

func TestFatalLogsErrorAndExits(t *testing.T) {
	var code int
	exit = func(c int) { code = c }
	defer func() { exit = os.Exit }()

	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Fatal("database unreachable")

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if entry["level"] != "error" {
		t.Errorf("level = %v, want error", entry["level"])
	}
	if entry["message"] != "database unreachable" {
		t.Errorf("message = %v, want %q", entry["message"], "database unreachable")
	}
}

func TestFatalfFormatsMessage(t *testing.T) {
	exit = func(int) {}
	defer func() { exit = os.Exit }()

	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Fatalf("bind to port %d failed", 8080)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if entry["message"] != "bind to port 8080 failed" {
		t.Errorf("message = %v, want %q", entry["message"], "bind to port 8080 failed")
	}
}
