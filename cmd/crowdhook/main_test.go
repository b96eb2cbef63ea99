package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdhook/internal/config"
	"crowdhook/internal/core"
	"crowdhook/internal/notifications/metrics"
)

const testToken = "s3cret-path-token"

const submissionCreated = `{
  "data": {
    "id": "act-1",
    "type": "activity",
    "attributes": {"key": "submission.created", "data": {}}
  },
  "included": [
    {"id": "user-1", "type": "identity", "attributes": {"name": "Researcher"}},
    {"id": "sub-42", "type": "submission", "attributes": {"title": "Stored XSS", "severity": 2}}
  ]
}`

type slackStub struct {
	mu       sync.Mutex
	requests []map[string]any
	server   *httptest.Server
}

func newSlackStub(t *testing.T) *slackStub {
	t.Helper()
	s := &slackStub{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		s.mu.Lock()
		s.requests = append(s.requests, body)
		s.mu.Unlock()
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(s.server.Close)
	return s
}

func setTestEnv(t *testing.T, slackURL string) {
	t.Helper()
	t.Setenv("APP_ENV", "local")
	t.Setenv("HASH", testToken)
	t.Setenv("BUGCROWD_ORG", "acme")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_API_URL", slackURL)
	t.Setenv("SLACK_NEW_BLOCKER_CHANNEL", "C-NEW-BLOCKER")
	t.Setenv("SLACK_RESOLVED_BLOCKER_CHANNEL", "C-RESOLVED-BLOCKER")
	t.Setenv("SLACK_NEW_SUBMISSION_CHANNEL", "C-NEW-SUBMISSION")
	t.Setenv("SLACK_PENDING_SUBMISSION_UPDATE_CHANNEL", "C-PENDING")
	t.Setenv("SLACK_DUPLICATE_NA_CHANNEL", "C-DUP-NA")
}

func buildTestServer(t *testing.T) (*core.Server, *slackStub) {
	t.Helper()
	stub := newSlackStub(t)
	setTestEnv(t, stub.server.URL)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := buildServer(cfg, logger, &http.Client{Timeout: 5 * time.Second}, metrics.Nop{})
	require.NoError(t, err)
	return srv, stub
}

func TestWebhookEndToEnd(t *testing.T) {
	srv, stub := buildTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/"+testToken, strings.NewReader(submissionCreated))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Done", rec.Body.String())

	stub.mu.Lock()
	defer stub.mu.Unlock()
	require.Len(t, stub.requests, 1)
	assert.Equal(t, "C-NEW-SUBMISSION", stub.requests[0]["channel"])
	assert.Equal(t, "Stored XSS", stub.requests[0]["text"])
}

func TestWebhookWrongToken(t *testing.T) {
	srv, stub := buildTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/nope", strings.NewReader(submissionCreated))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, stub.requests)
}

func TestHealthReportsSlackBreaker(t *testing.T) {
	srv, _ := buildTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "slack-api")
}

func TestNewRecorder_DisabledIsNop(t *testing.T) {
	rec, err := newRecorder(context.Background(), &config.Config{}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, metrics.Nop{}, rec)
}

func TestNewLogger_Levels(t *testing.T) {
	for level, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	} {
		logger := newLogger(level)
		assert.True(t, logger.Enabled(context.Background(), want), level)
		if want > slog.LevelDebug {
			assert.False(t, logger.Enabled(context.Background(), want-1), level)
		}
	}
}

func TestLambdaAdapter_RoutesProxyEvents(t *testing.T) {
	srv, stub := buildTestServer(t)
	adapter := chiadapter.New(srv.Router())

	resp, err := adapter.ProxyWithContext(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, core.HelloMessage, resp.Body)

	resp, err = adapter.ProxyWithContext(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/webhook/" + testToken,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       submissionCreated,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Done", resp.Body)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Len(t, stub.requests, 1)
}

func TestLambdaAdapter_WrongToken(t *testing.T) {
	srv, stub := buildTestServer(t)

	resp, err := chiadapter.New(srv.Router()).ProxyWithContext(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/webhook/nope",
		Body:       submissionCreated,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, stub.requests)
}
