package types

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

// mockLogger implements the Logger interface for testing purposes.
type mockLogger struct {
	messages []string
}

func (m *mockLogger) Info(msg string, args ...any)  { m.messages = append(m.messages, "info:"+msg) }
func (m *mockLogger) Error(msg string, args ...any) { m.messages = append(m.messages, "error:"+msg) }
func (m *mockLogger) Warn(msg string, args ...any)  { m.messages = append(m.messages, "warn:"+msg) }
func (m *mockLogger) With(args ...any) Logger        { return m }

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-abc")
	if got := GetRequestID(ctx); got != "req-abc" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-abc")
	}
}

func TestRequestID_Missing(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on empty context = %q, want empty", got)
	}
}

func TestLogger_RoundTrip(t *testing.T) {
	logger := &mockLogger{}
	ctx := WithLogger(context.Background(), logger)

	got := LoggerFromContext(ctx)
	if got == nil {
		t.Fatal("LoggerFromContext() returned nil")
	}
	got.Info("hello")
	if len(logger.messages) != 1 || logger.messages[0] != "info:hello" {
		t.Errorf("unexpected messages: %v", logger.messages)
	}
}

func TestLogger_Missing(t *testing.T) {
	if LoggerFromContext(context.Background()) != nil {
		t.Error("LoggerFromContext() on empty context should be nil")
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, nil)))

	adapter.With("event_key", "submission.created").Warn("slack rejected message", "status", 200)

	out := buf.String()
	if !strings.Contains(out, `"event_key":"submission.created"`) {
		t.Errorf("expected With attributes in output: %s", out)
	}
	if !strings.Contains(out, `"level":"WARN"`) {
		t.Errorf("expected WARN level in output: %s", out)
	}
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.With("k", "v").Error("ignored")
}
