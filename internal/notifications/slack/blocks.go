package slack

import (
	"encoding/json"
	"net/url"

	"crowdhook/internal/types"
)

// ButtonText is the label on the link button.
const ButtonText = "View Submission"

// Block Kit block and element types.
const (
	blockHeader  = "header"
	blockDivider = "divider"
	blockSection = "section"
	blockActions = "actions"
	blockContext = "context"

	textPlain    = "plain_text"
	textMarkdown = "mrkdwn"

	elementButton = "button"
)

// PostMessageRequest is the chat.postMessage request body.
type PostMessageRequest struct {
	Channel string  `json:"channel"`
	Text    string  `json:"text"`
	Blocks  []Block `json:"blocks"`
}

// Block is one Block Kit layout block.
type Block struct {
	Type     string    `json:"type"`
	Text     *Text     `json:"text,omitempty"`
	Elements []Element `json:"elements,omitempty"`
}

// Text is a Block Kit text object.
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Element is a block element. Buttons carry Text and URL; context elements are
// text objects and only use Type and Content.
type Element struct {
	Type    string `json:"type"`
	Text    *Text  `json:"text,omitempty"`
	URL     string `json:"url,omitempty"`
	Content string `json:"-"`
}

// MarshalJSON renders context-block text elements as plain text objects.
func (e Element) MarshalJSON() ([]byte, error) {
	if e.Type == elementButton {
		type button Element
		return json.Marshal(button(e))
	}
	return json.Marshal(Text{Type: e.Type, Text: e.Content})
}

// BuildMessage lays out a notification as header, divider, body section and a
// link. A link that is not an absolute http(s) URL, such as the tracker
// placeholders, is shown as context text instead of a button.
func BuildMessage(n *types.Notification) PostMessageRequest {
	title := n.TruncatedTitle()

	blocks := []Block{
		{Type: blockHeader, Text: &Text{Type: textPlain, Text: title}},
		{Type: blockDivider},
	}

	if n.Body != "" {
		blocks = append(blocks, Block{
			Type: blockSection,
			Text: &Text{Type: textMarkdown, Text: n.Body},
		})
	}

	if isLinkURL(n.Link) {
		blocks = append(blocks, Block{
			Type: blockActions,
			Elements: []Element{{
				Type: elementButton,
				Text: &Text{Type: textPlain, Text: ButtonText},
				URL:  n.Link,
			}},
		})
	} else if n.Link != "" {
		blocks = append(blocks, Block{
			Type:     blockContext,
			Elements: []Element{{Type: textMarkdown, Content: n.Link}},
		})
	}

	return PostMessageRequest{
		Channel: n.Channel,
		Text:    title,
		Blocks:  blocks,
	}
}

func isLinkURL(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}
