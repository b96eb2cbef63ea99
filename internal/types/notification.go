package types

// MaxTitleLength is the display cap applied to notification titles before they
// reach the chat platform (Slack header blocks reject longer plain text).
const MaxTitleLength = 150

// Notification is the request-scoped message handed to a Notifier. It is built
// once per webhook call and never stored.
type Notification struct {
	Channel string
	Title   string
	Body    string
	Link    string
}

// TruncatedTitle returns the title cut to MaxTitleLength characters (runes, not
// bytes, so multi-byte titles are never split mid-character).
func (n *Notification) TruncatedTitle() string {
	runes := []rune(n.Title)
	if len(runes) <= MaxTitleLength {
		return n.Title
	}
	return string(runes[:MaxTitleLength])
}
