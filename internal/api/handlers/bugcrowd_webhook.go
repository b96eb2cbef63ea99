// Package handlers contains the HTTP handlers mounted on the core router.
//
// The Bugcrowd webhook endpoint is unauthenticated at the HTTP layer. Bugcrowd
// is configured with a URL whose last path segment is a shared secret, and the
// handler compares that segment in constant time before touching the body.
package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crowdhook/internal/core"
	"crowdhook/internal/events"
	"crowdhook/internal/notifications/dispatch"
	"crowdhook/internal/types"
)

// Response bodies returned to Bugcrowd.
const (
	ResponseDone         = "Done"
	ResponseUnauthorized = "Unauthorized"
)

// DefaultMaxBodySize is used when no limit is configured.
const DefaultMaxBodySize int64 = 1 << 20

// Dispatcher routes a decoded event. *dispatch.Router implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *events.WebhookEvent) dispatch.Outcome
}

// BugcrowdWebhookHandler receives Bugcrowd webhook deliveries.
type BugcrowdWebhookHandler struct {
	dispatcher  Dispatcher
	secret      types.SecretString
	maxBodySize int64
	logger      *slog.Logger
}

// NewBugcrowdWebhookHandler creates the handler. A non-positive maxBodySize
// falls back to DefaultMaxBodySize.
func NewBugcrowdWebhookHandler(
	dispatcher Dispatcher,
	secret types.SecretString,
	maxBodySize int64,
	logger *slog.Logger,
) (*BugcrowdWebhookHandler, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("bugcrowd webhook handler: dispatcher is nil")
	}
	if secret.IsZero() {
		return nil, fmt.Errorf("bugcrowd webhook handler: secret is empty")
	}
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BugcrowdWebhookHandler{
		dispatcher:  dispatcher,
		secret:      secret,
		maxBodySize: maxBodySize,
		logger:      logger,
	}, nil
}

// RegisterRoutes mounts POST /webhook/{token}. The token gate runs before
// request decompression so an unauthenticated body is never touched.
func (h *BugcrowdWebhookHandler) RegisterRoutes(r chi.Router) {
	r.With(h.RequireToken, core.DecompressMiddleware).Post("/webhook/{token}", h.Handle)
}

// RequireToken answers 401 "Unauthorized" unless the {token} path segment
// matches the configured secret. The request body is never read.
func (h *BugcrowdWebhookHandler) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.authorized(chi.URLParam(r, "token")) {
			h.logger.WarnContext(r.Context(), "rejected webhook with invalid token",
				"code", string(types.ErrCodeAuthTokenInvalid),
				"request_id", types.GetRequestID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
			core.Text(w, http.StatusUnauthorized, ResponseUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handle decodes and dispatches one authenticated delivery. RegisterRoutes
// mounts it behind RequireToken.
//
//   - oversized body: 413 error envelope
//   - malformed payload: 400 error envelope
//   - otherwise: 200 "Done", whether or not a notification was posted
func (h *BugcrowdWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		core.Error(w, r, h.readError(err))
		return
	}

	event, err := events.Decode(body)
	if err != nil {
		level := slog.LevelWarn
		if !types.IsMalformedPayload(err) {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "rejected malformed webhook payload",
			"request_id", types.GetRequestID(ctx),
			"error", err.Error(),
		)
		core.Error(w, r, err)
		return
	}

	ctx = types.WithLogger(ctx, types.NewSlogAdapter(h.logger).With("request_id", types.GetRequestID(ctx)))
	outcome := h.dispatcher.Dispatch(ctx, event)
	if outcome.DeliveryErr != nil {
		h.logger.WarnContext(ctx, "webhook acknowledged without delivery",
			"request_id", types.GetRequestID(ctx),
			"event_key", string(outcome.Key),
		)
	}

	core.Text(w, http.StatusOK, ResponseDone)
}

func (h *BugcrowdWebhookHandler) authorized(token string) bool {
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secret.Unmask())) == 1
}

func (h *BugcrowdWebhookHandler) readError(err error) *types.AppError {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return types.NewAppErrorWithDetails(
			types.ErrCodeValidationBodyTooLarge,
			"request body too large",
			err,
			map[string]any{"limit_bytes": maxBytesErr.Limit},
		)
	}
	return types.NewAppError(
		types.ErrCodeValidationMalformedPayload,
		"failed to read request body",
		err,
	)
}
