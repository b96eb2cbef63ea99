// Package slack posts notifications to Slack through the Web API
// (chat.postMessage) using a bot token.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"crowdhook/internal/external"
	"crowdhook/internal/types"
)

// DefaultAPIURL is the Slack Web API base URL.
const DefaultAPIURL = "https://slack.com/api"

// BreakerName names the circuit breaker guarding the Slack API.
const BreakerName = "slack-api"

const (
	postMessagePath = "/chat.postMessage"
	userAgent       = "crowdhook/1.0"

	// maxResponseBodyRead limits how much of a response body is read.
	maxResponseBodyRead = 4096
)

var _ types.Notifier = (*Client)(nil)

// Config holds the Slack client settings.
type Config struct {
	APIURL  string
	Token   types.SecretString
	Timeout time.Duration
}

// Client implements types.Notifier for Slack.
type Client struct {
	base   *external.BaseClient
	apiURL string
	token  types.SecretString
	logger types.Logger
}

// NewClient creates a Slack client. httpClient may be nil, in which case one
// is built with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client, logger types.Logger) (*Client, error) {
	if cfg.Token.IsZero() {
		return nil, fmt.Errorf("slack client: token is empty")
	}
	if logger == nil {
		logger = types.NopLogger{}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	return &Client{
		base:   external.NewBaseClient(httpClient, BreakerName, external.DefaultBreakerSettings(), userAgent),
		apiURL: apiURL,
		token:  cfg.Token,
		logger: logger,
	}, nil
}

// Notify posts n as a Block Kit message to n.Channel.
func (c *Client) Notify(ctx context.Context, n *types.Notification) error {
	if n == nil {
		return fmt.Errorf("slack notify: notification is nil")
	}

	payload, err := json.Marshal(BuildMessage(n))
	if err != nil {
		return fmt.Errorf("slack notify: failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+postMessagePath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("slack notify: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token.Unmask())

	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyRead))

	if err := ValidateResponse(resp.StatusCode, body); err != nil {
		c.logger.Warn("slack rejected message",
			"channel", n.Channel,
			"status", resp.StatusCode,
			"slack_request_id", resp.Header.Get("X-Slack-Req-Id"),
		)
		return types.NewAppError(types.ErrCodeUpstreamSlack, "slack rejected message", err)
	}

	return nil
}

// BreakerState reports the state of the Slack circuit breaker.
func (c *Client) BreakerState() gobreaker.State {
	return c.base.State()
}

// apiResponse is the envelope every Web API method returns.
type apiResponse struct {
	OK    *bool  `json:"ok"`
	Error string `json:"error"`
}

// ValidateResponse checks a chat.postMessage response. Slack reports most
// failures as HTTP 200 with "ok": false, so the body is authoritative.
func ValidateResponse(statusCode int, body []byte) error {
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("slack: unexpected status %d: %s", statusCode, truncateBody(body))
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("slack: unreadable response: %w", err)
	}
	if resp.OK == nil {
		return fmt.Errorf("slack: response missing ok field")
	}
	if !*resp.OK {
		errMsg := resp.Error
		if errMsg == "" {
			errMsg = "unknown error"
		}
		return fmt.Errorf("slack: API error: %s", errMsg)
	}

	return nil
}

func truncateBody(body []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
