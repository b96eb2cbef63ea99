package dispatch

import (
	"fmt"
	"sort"
	"strings"

	"crowdhook/internal/events"
	"crowdhook/internal/types"
)

// Fixed message text.
const (
	BlockerTitle = "Blocker Created"

	MessageBlockerOperations = "Blocker created for Bugcrowd Operations!"
	MessageBlockerResearcher = "Blocker created for researcher!"
	MessageBlockerCustomer   = "Blocker created for customer!"
	MessageBlockerUnknown    = "Unknown blocker creator!"

	UnknownTitle = "Unknown Title"

	// stateNotApplicable and the duplicate flag route an update to the
	// duplicate/not-applicable channel.
	stateNotApplicable   = "not-applicable"
	changeFieldState     = "state"
	changeFieldDuplicate = "duplicate"
)

// Channels holds the Slack channel identifiers per event class.
type Channels struct {
	NewBlocker              string
	ResolvedBlocker         string
	NewSubmission           string
	PendingSubmissionUpdate string
	DuplicateNotApplicable  string
}

// BlockerMessage maps blocked_by to its message. Absent or unrecognized values
// produce MessageBlockerUnknown.
func BlockerMessage(blockedBy *string) string {
	if blockedBy == nil {
		return MessageBlockerUnknown
	}
	switch *blockedBy {
	case events.BlockedByOperations:
		return MessageBlockerOperations
	case events.BlockedByResearcher:
		return MessageBlockerResearcher
	case events.BlockedByCustomer:
		return MessageBlockerCustomer
	default:
		return MessageBlockerUnknown
	}
}

// messageBuilder turns decoded event data into notifications. A nil result
// means the event is acknowledged but nothing is posted.
type messageBuilder struct {
	channels Channels
	links    LinkBuilder
}

// blockerCreated posts only blockers raised against the customer, to the
// new-blocker channel. Every other actor class yields nil.
func (b messageBuilder) blockerCreated(data events.ChangeData, target events.IncludedResource) *types.Notification {
	if data.BlockedBy == nil || *data.BlockedBy != events.BlockedByCustomer {
		return nil
	}
	return &types.Notification{
		Channel: b.channels.NewBlocker,
		Title:   BlockerTitle,
		Body:    MessageBlockerCustomer,
		Link:    b.links.BlockerLink(target),
	}
}

// blockerUpdated posts every update to the resolved-blocker channel.
func (b messageBuilder) blockerUpdated(data events.ChangeData, target events.IncludedResource) *types.Notification {
	return &types.Notification{
		Channel: b.channels.ResolvedBlocker,
		Title:   BlockerTitle,
		Body:    BlockerMessage(data.BlockedBy),
		Link:    b.links.BlockerLink(target),
	}
}

func (b messageBuilder) submissionCreated(_ events.ChangeData, target events.IncludedResource) *types.Notification {
	return &types.Notification{
		Channel: b.channels.NewSubmission,
		Title:   submissionTitle(target),
		Body:    severityLine(target),
		Link:    b.links.SubmissionLink(target),
	}
}

func (b messageBuilder) submissionUpdated(data events.ChangeData, target events.IncludedResource) *types.Notification {
	return &types.Notification{
		Channel: b.updateChannel(data.Changes),
		Title:   submissionTitle(target),
		Body:    changeMessage(data.Changes, target),
		Link:    b.links.SubmissionLink(target),
	}
}

// updateChannel starts from the pending-update channel. Both overrides are
// evaluated, in order, without short-circuiting.
func (b messageBuilder) updateChannel(changes map[string]events.Change) string {
	channel := b.channels.PendingSubmissionUpdate

	if change, ok := changes[changeFieldState]; ok && change.To.IsString(stateNotApplicable) {
		channel = b.channels.DuplicateNotApplicable
	}
	if change, ok := changes[changeFieldDuplicate]; ok && change.To.IsBool(true) {
		channel = b.channels.DuplicateNotApplicable
	}

	return channel
}

// submissionTitle falls back to UnknownTitle for an absent or blank title;
// Slack rejects an empty header block.
func submissionTitle(target events.IncludedResource) string {
	if target.Attributes.Title == nil || strings.TrimSpace(*target.Attributes.Title) == "" {
		return UnknownTitle
	}
	return *target.Attributes.Title
}

// severityLine is "Severity: <n>\n", or empty when severity is absent.
func severityLine(target events.IncludedResource) string {
	if target.Attributes.Severity == nil {
		return ""
	}
	return fmt.Sprintf("Severity: %d\n", *target.Attributes.Severity)
}

// changeMessage renders the severity line, a "Changes:" header and one
// "<field>: <from> -> <to>" line per change, sorted by field name.
func changeMessage(changes map[string]events.Change, target events.IncludedResource) string {
	var sb strings.Builder
	sb.WriteString(severityLine(target))
	sb.WriteString("Changes:\n")

	fields := make([]string, 0, len(changes))
	for field := range changes {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		change := changes[field]
		fmt.Fprintf(&sb, "%s: %s -> %s\n", field, change.From.String(), change.To.String())
	}

	return sb.String()
}
