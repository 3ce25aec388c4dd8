package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagePartUnmarshalNormalizesLegacyStrings(t *testing.T) {
	// Old memory files store some parts as bare strings. They must come out
	// of the decoder as tagged text parts.
	var msg Message
	raw := `{"role":"user","parts":["你好","第二句"]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))

	require.Len(t, msg.Parts, 2)
	assert.Equal(t, MessagePart{Type: PartTypeText, Text: "你好"}, msg.Parts[0])
	assert.Equal(t, MessagePart{Type: PartTypeText, Text: "第二句"}, msg.Parts[1])
}

func TestMessagePartUnmarshalDefaultsMissingType(t *testing.T) {
	var part MessagePart
	require.NoError(t, json.Unmarshal([]byte(`{"text":"hello"}`), &part))
	assert.Equal(t, PartTypeText, part.Type)
	assert.Equal(t, "hello", part.Text)
}

func TestMessagePartUnmarshalTaggedForms(t *testing.T) {
	var msg Message
	raw := `{"role":"user","parts":[
		{"type":"text","text":"看看这个"},
		{"type":"image","path":"images/abc.jpg"}
	]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))

	require.Len(t, msg.Parts, 2)
	assert.Equal(t, PartTypeText, msg.Parts[0].Type)
	assert.Equal(t, PartTypeImage, msg.Parts[1].Type)
	assert.Equal(t, "images/abc.jpg", msg.Parts[1].Path)
	assert.True(t, msg.HasImage())
}

func TestMessageTextConcatenatesAllTextParts(t *testing.T) {
	msg := Message{
		Role: RoleUser,
		Parts: []MessagePart{
			{Type: PartTypeText, Text: "第一段"},
			{Type: PartTypeImage, Path: "images/x.png"},
			{Type: PartTypeText, Text: "第二段"},
		},
	}
	assert.Equal(t, "第一段\n第二段", msg.Text())
}

func TestMessageTextEmptyWhenNoTextParts(t *testing.T) {
	msg := Message{
		Role:  RoleUser,
		Parts: []MessagePart{{Type: PartTypeImage, Path: "images/x.png"}},
	}
	assert.Equal(t, "", msg.Text())
	assert.True(t, msg.HasImage())
}

func TestTextMessage(t *testing.T) {
	msg := TextMessage(RoleModel, "好的")
	assert.Equal(t, RoleModel, msg.Role)
	require.Len(t, msg.Parts, 1)
	assert.Equal(t, "好的", msg.Text())
	assert.False(t, msg.HasImage())
}
