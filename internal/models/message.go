package models

import (
	"encoding/json"
	"strings"
)

// Message roles. The relay protocol derives "is there pending work" from the
// role of the LAST entry in a conversation log, so these values are part of
// the on-disk contract and must not change.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// MessagePart types.
const (
	PartTypeText  = "text"
	PartTypeImage = "image"
)

// MessagePart is a tagged variant: either a text fragment or a reference to
// an image file stored under the owning user's private image directory
// (relative path).
type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Path string `json:"path,omitempty"`
}

// UnmarshalJSON accepts both the tagged object form and the legacy bare
// string form ("你好" is read as {"type":"text","text":"你好"}). Old memory
// files mix the two representations, so they are normalized here, at the
// storage boundary, and internal logic only ever sees tagged parts.
func (p *MessagePart) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = MessagePart{Type: PartTypeText, Text: s}
		return nil
	}

	type alias MessagePart
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Type == "" {
		a.Type = PartTypeText
	}
	*p = MessagePart(a)
	return nil
}

// Message is a single entry in a user's conversation log. Ordering in the
// log is the only timestamp; entries are never edited or removed.
type Message struct {
	Role  string        `json:"role"`
	Parts []MessagePart `json:"parts"`
}

// TextMessage builds a message with a single text part.
func TextMessage(role, text string) Message {
	return Message{
		Role:  role,
		Parts: []MessagePart{{Type: PartTypeText, Text: text}},
	}
}

// Text returns all text parts of the message concatenated with newlines.
// A turn may carry several text parts; concatenation is used everywhere so
// no part is silently dropped.
func (m Message) Text() string {
	var texts []string
	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// HasImage reports whether any part of the message references an image.
func (m Message) HasImage() bool {
	for _, p := range m.Parts {
		if p.Type == PartTypeImage {
			return true
		}
	}
	return false
}
