package core

import (
	"bytes"
	"log/slog"
	"testing"

	"crowdhook/internal/config"
)

// newTestServer returns a server whose logs are captured in the returned
// buffer.
func newTestServer(t *testing.T) (*Server, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := &config.Config{Environment: "local", Build: config.NewBuildInfo()}
	srv, err := NewServer(cfg, logger)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return srv, &buf
}
