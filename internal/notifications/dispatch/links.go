package dispatch

import (
	"fmt"
	"net/url"

	"crowdhook/internal/events"
)

// Placeholders rendered in place of a link when the included resource does not
// say which submission it belongs to. They are shown to users verbatim.
const (
	LinkRelationshipsNone = "Relationships are None"
	LinkResourceNone      = "Resource is None"
)

// DefaultTrackerHost is the Bugcrowd tracker UI host.
const DefaultTrackerHost = "tracker.bugcrowd.com"

// LinkBuilder constructs deep links into the tracker for one organization.
type LinkBuilder struct {
	Host         string
	Organization string
}

// SubmissionURL returns https://<host>/<org>/submissions/<id>.
func (b LinkBuilder) SubmissionURL(submissionID string) string {
	host := b.Host
	if host == "" {
		host = DefaultTrackerHost
	}
	return fmt.Sprintf("https://%s/%s/submissions/%s",
		host,
		url.PathEscape(b.Organization),
		url.PathEscape(submissionID),
	)
}

// BlockerLink follows the included resource's relationship to its submission.
// Missing relationships or a missing resource yield the literal placeholders
// instead of an error.
func (b LinkBuilder) BlockerLink(target events.IncludedResource) string {
	id, hasRelationships := target.ResourceID()
	switch {
	case !hasRelationships:
		return LinkRelationshipsNone
	case id == "":
		return LinkResourceNone
	default:
		return b.SubmissionURL(id)
	}
}

// SubmissionLink links to the included submission itself.
func (b LinkBuilder) SubmissionLink(target events.IncludedResource) string {
	return b.SubmissionURL(target.ID)
}
