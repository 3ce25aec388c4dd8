package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omgcreativity/laojia/internal/models"
	"github.com/omgcreativity/laojia/internal/store/file"
)

// fakeLLM records the last call and returns a canned reply.
type fakeLLM struct {
	reply      string
	err        error
	sysPrompt  string
	history    []models.Message
	lastPrompt string
}

func (f *fakeLLM) Chat(ctx context.Context, systemPrompt string, history []models.Message, prompt string) (string, error) {
	f.sysPrompt = systemPrompt
	f.history = history
	f.lastPrompt = prompt
	return f.reply, f.err
}

func newChatService(t *testing.T, model *fakeLLM) (*ChatService, *file.FileStore) {
	t.Helper()
	fileStore, err := file.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewChatService(fileStore, model, nil), fileStore
}

func TestChatPersistsBothTurns(t *testing.T) {
	model := &fakeLLM{reply: "你好呀，主人"}
	s, fileStore := newChatService(t, model)
	ctx := context.Background()

	resp, err := s.Chat(ctx, "alice", "你好")
	require.NoError(t, err)
	assert.Equal(t, "你好呀，主人", resp.Reply)
	assert.Empty(t, resp.AudioPath)

	messages, err := fileStore.ReadConversation(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "你好", messages[0].Text())
	assert.Equal(t, models.RoleModel, messages[1].Role)
}

func TestChatSendsFullHistory(t *testing.T) {
	model := &fakeLLM{reply: "记得"}
	s, fileStore := newChatService(t, model)
	ctx := context.Background()

	require.NoError(t, fileStore.AppendMessage(ctx, "alice", models.TextMessage(models.RoleUser, "第一句")))
	require.NoError(t, fileStore.AppendMessage(ctx, "alice", models.TextMessage(models.RoleModel, "第一答")))

	_, err := s.Chat(ctx, "alice", "还记得吗")
	require.NoError(t, err)

	require.Len(t, model.history, 2)
	assert.Equal(t, "第一句", model.history[0].Text())
	assert.Equal(t, "还记得吗", model.lastPrompt)
}

func TestChatSystemPromptUsesProfile(t *testing.T) {
	model := &fakeLLM{reply: "好的"}
	s, fileStore := newChatService(t, model)
	ctx := context.Background()

	require.NoError(t, fileStore.SaveProfile(ctx, "alice", models.Profile{
		Nickname:   "小艾",
		Occupation: "教师",
	}))

	_, err := s.Chat(ctx, "alice", "你好")
	require.NoError(t, err)

	assert.Contains(t, model.sysPrompt, "小艾")
	assert.Contains(t, model.sysPrompt, "教师")
	assert.Contains(t, model.sysPrompt, models.DefaultStyle)
	// Unfilled fields read as unknown, not as empty strings.
	assert.Contains(t, model.sysPrompt, "未知")
}

func TestChatSystemPromptFallsBackToUsername(t *testing.T) {
	model := &fakeLLM{reply: "好的"}
	s, _ := newChatService(t, model)

	_, err := s.Chat(context.Background(), "alice", "你好")
	require.NoError(t, err)
	assert.Contains(t, model.sysPrompt, "alice")
}

func TestChatEmptyMessage(t *testing.T) {
	s, _ := newChatService(t, &fakeLLM{})

	_, err := s.Chat(context.Background(), "alice", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestChatWithoutModel(t *testing.T) {
	fileStore, err := file.NewFileStore(t.TempDir())
	require.NoError(t, err)
	s := NewChatService(fileStore, nil, nil)

	_, err = s.Chat(context.Background(), "alice", "你好")
	assert.ErrorIs(t, err, ErrLLMNotConfigured)
}

func TestChatModelErrorDoesNotPersist(t *testing.T) {
	model := &fakeLLM{err: errors.New("quota exceeded")}
	s, fileStore := newChatService(t, model)
	ctx := context.Background()

	_, err := s.Chat(ctx, "alice", "你好")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "quota exceeded"))

	// A failed generation leaves no half-written exchange behind.
	messages, err := fileStore.ReadConversation(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestHistory(t *testing.T) {
	s, fileStore := newChatService(t, &fakeLLM{})
	ctx := context.Background()

	require.NoError(t, fileStore.AppendMessage(ctx, "alice", models.TextMessage(models.RoleUser, "你好")))

	messages, err := s.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "你好", messages[0].Text())
}
