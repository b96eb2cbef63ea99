// Package dispatch classifies decoded Bugcrowd events by key and turns each
// recognised event into a Slack notification.
//
// The handler table is closed over an open key space: the four known keys have
// handlers, every other key is acknowledged and dropped so new upstream event
// types never break the integration.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"crowdhook/internal/events"
	"crowdhook/internal/notifications/metrics"
	"crowdhook/internal/types"
)

// HandlerFunc builds the notification for one event class. A nil result means
// nothing is posted for this event.
type HandlerFunc func(data events.ChangeData, target events.IncludedResource) *types.Notification

// Settings is the per-process configuration the router needs. It is built once
// at startup and never read from the environment afterwards.
type Settings struct {
	Channels     Channels
	TrackerHost  string
	Organization string
}

// Outcome describes what happened to one event.
type Outcome struct {
	Key          events.EventKey
	Ignored      bool                // key has no handler
	Notification *types.Notification // nil when ignored or suppressed
	DeliveryErr  error               // notifier failure; logged, never surfaced to the sender
}

// Delivered reports whether a notification was posted successfully.
func (o Outcome) Delivered() bool {
	return o.Notification != nil && o.DeliveryErr == nil
}

// Router dispatches decoded events. It holds no per-request state and is safe
// for concurrent use.
type Router struct {
	handlers map[events.EventKey]HandlerFunc
	resolver events.Resolver
	notifier types.Notifier
	metrics  metrics.Recorder
	logger   types.Logger
	now      func() time.Time
}

// Option configures a Router.
type Option func(*Router)

// WithResolver overrides the included-resource resolver.
func WithResolver(r events.Resolver) Option {
	return func(rt *Router) { rt.resolver = r }
}

// WithMetrics sets the outcome recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(rt *Router) { rt.metrics = m }
}

// NewRouter creates a Router with the four Bugcrowd handlers registered.
func NewRouter(settings Settings, notifier types.Notifier, logger types.Logger, opts ...Option) (*Router, error) {
	if notifier == nil {
		return nil, fmt.Errorf("dispatch router: notifier is nil")
	}
	if settings.Organization == "" {
		return nil, fmt.Errorf("dispatch router: organization is empty")
	}
	if logger == nil {
		logger = types.NopLogger{}
	}

	mb := messageBuilder{
		channels: settings.Channels,
		links: LinkBuilder{
			Host:         settings.TrackerHost,
			Organization: settings.Organization,
		},
	}

	r := &Router{
		handlers: map[events.EventKey]HandlerFunc{
			events.KeyBlockerCreated:    mb.blockerCreated,
			events.KeyBlockerUpdated:    mb.blockerUpdated,
			events.KeySubmissionCreated: mb.submissionCreated,
			events.KeySubmissionUpdated: mb.submissionUpdated,
		},
		resolver: events.DefaultResolver,
		notifier: notifier,
		metrics:  metrics.Nop{},
		logger:   logger,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Classify returns the handler for key. ok is false for keys the router
// deliberately ignores.
func (r *Router) Classify(key events.EventKey) (HandlerFunc, bool) {
	h, ok := r.handlers[key]
	return h, ok
}

// Dispatch classifies the event, builds its notification and hands it to the
// notifier. It never returns an error: delivery failures are logged and
// reported through Outcome.DeliveryErr only. A request-scoped logger in ctx
// takes precedence over the router's own.
func (r *Router) Dispatch(ctx context.Context, event *events.WebhookEvent) Outcome {
	if event == nil {
		return Outcome{Ignored: true}
	}

	key := eventKey(event)
	base := r.logger
	if l := types.LoggerFromContext(ctx); l != nil {
		base = l
	}
	logger := base.With("event_key", string(key), "event_id", event.Data.ID)

	handler, ok := r.Classify(key)
	if !ok {
		logger.Info("ignoring unrecognized event")
		r.metrics.RecordDispatch(ctx, metrics.EventKeyOther, metrics.ResultIgnored)
		return Outcome{Key: key, Ignored: true}
	}

	var data events.ChangeData
	if event.Data.Attributes != nil {
		data = event.Data.Attributes.Data
	}
	target := r.resolver.Resolve(event)

	n := handler(data, target)
	if n == nil {
		logger.Info("event handled without notification",
			"blocked_by", derefOr(data.BlockedBy, "none"),
			"message", BlockerMessage(data.BlockedBy),
		)
		r.metrics.RecordDispatch(ctx, string(key), metrics.ResultSuppressed)
		return Outcome{Key: key}
	}

	start := r.now()
	err := r.notifier.Notify(ctx, n)
	r.metrics.RecordLatency(ctx, string(key), r.now().Sub(start))

	if err != nil {
		logger.Error("failed to send notification",
			"channel", n.Channel,
			"error", err.Error(),
		)
		r.metrics.RecordDispatch(ctx, string(key), metrics.ResultFailed)
		return Outcome{Key: key, Notification: n, DeliveryErr: err}
	}

	logger.Info("notification sent", "channel", n.Channel)
	r.metrics.RecordDispatch(ctx, string(key), metrics.ResultDelivered)
	return Outcome{Key: key, Notification: n}
}

func eventKey(event *events.WebhookEvent) events.EventKey {
	if event.Data.Attributes == nil {
		return ""
	}
	return event.Data.Attributes.Key
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
