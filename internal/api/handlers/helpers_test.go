package handlers

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"crowdhook/internal/config"
	"crowdhook/internal/core"
)

func newChassis(t *testing.T, logs io.Writer) *core.Server {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(logs, nil))
	srv, err := core.NewServer(&config.Config{Environment: "local"}, logger)
	require.NoError(t, err)
	return srv
}
