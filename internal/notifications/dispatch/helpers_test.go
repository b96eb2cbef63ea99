package dispatch

import (
	"context"
	"sync"
	"time"

	"crowdhook/internal/events"
	"crowdhook/internal/notifications/metrics"
	"crowdhook/internal/types"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []types.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg *types.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, *msg)
	return n.err
}

type dispatchRecord struct {
	key    string
	result metrics.Result
}

type recordingMetrics struct {
	mu        sync.Mutex
	dispatch  []dispatchRecord
	latencies int
}

func (m *recordingMetrics) RecordDispatch(_ context.Context, key string, result metrics.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatch = append(m.dispatch, dispatchRecord{key: key, result: result})
}

func (m *recordingMetrics) RecordLatency(context.Context, string, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies++
}

func testChannels() Channels {
	return Channels{
		NewBlocker:              "C-NEW-BLOCKER",
		ResolvedBlocker:         "C-RESOLVED-BLOCKER",
		NewSubmission:           "C-NEW-SUBMISSION",
		PendingSubmissionUpdate: "C-PENDING",
		DuplicateNotApplicable:  "C-DUP-NA",
	}
}

func testSettings() Settings {
	return Settings{
		Channels:     testChannels(),
		TrackerHost:  "tracker.bugcrowd.com",
		Organization: "acme",
	}
}

func strPtr(s string) *string { return &s }

func u8Ptr(n uint8) *uint8 { return &n }

// eventWith builds an event whose included list is [actor, target].
func eventWith(key events.EventKey, data events.ChangeData, target events.IncludedResource) *events.WebhookEvent {
	return &events.WebhookEvent{
		Data: events.PrimaryResource{
			ID:         "act-1",
			Type:       "activity",
			Attributes: &events.Attributes{Key: key, Data: data},
		},
		Included: []events.IncludedResource{
			{ID: "user-1", Type: "identity"},
			target,
		},
	}
}

func blockerTarget(submissionID string) events.IncludedResource {
	return events.IncludedResource{
		ID:   "blk-1",
		Type: "blocker",
		Relationships: &events.IncludedRelationships{
			Resource: &events.Relation{Data: events.ResourceIdentifier{Type: "submission", ID: submissionID}},
		},
	}
}

func submissionTarget(id string, title *string, severity *uint8) events.IncludedResource {
	return events.IncludedResource{
		ID:   id,
		Type: "submission",
		Attributes: events.IncludedAttributes{
			Title:    title,
			Severity: severity,
		},
	}
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+":"+msg)
}

func (l *recordingLogger) Info(msg string, _ ...any)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record("error", msg) }
func (l *recordingLogger) With(...any) types.Logger   { return l }
