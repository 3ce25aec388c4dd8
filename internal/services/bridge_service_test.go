package services

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omgcreativity/laojia/internal/models"
	"github.com/omgcreativity/laojia/internal/store/file"
)

func newBridgeService(t *testing.T) *BridgeService {
	t.Helper()
	fileStore, err := file.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewBridgeService(fileStore)
}

func TestFetchPendingEmptyLog(t *testing.T) {
	s := newBridgeService(t)

	resp, err := s.FetchPending(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, resp.HasNew)
	assert.Empty(t, resp.Content)
}

func TestFetchPendingLastIsModel(t *testing.T) {
	s := newBridgeService(t)
	ctx := context.Background()

	require.NoError(t, s.store.AppendMessage(ctx, "alice", models.TextMessage(models.RoleUser, "你好")))
	require.NoError(t, s.store.AppendMessage(ctx, "alice", models.TextMessage(models.RoleModel, "你好呀")))

	resp, err := s.FetchPending(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, resp.HasNew)
}

func TestFetchPendingLastIsUser(t *testing.T) {
	s := newBridgeService(t)
	ctx := context.Background()

	require.NoError(t, s.store.AppendMessage(ctx, "alice", models.TextMessage(models.RoleUser, "你好")))

	resp, err := s.FetchPending(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, resp.HasNew)
	assert.Equal(t, "你好", resp.Content)

	// Pure read: polling again returns the same thing, nothing is consumed.
	again, err := s.FetchPending(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, resp, again)
}

func TestFetchPendingAppendsImageMarker(t *testing.T) {
	s := newBridgeService(t)
	ctx := context.Background()

	msg := models.Message{
		Role: models.RoleUser,
		Parts: []models.MessagePart{
			{Type: models.PartTypeText, Text: "看看这张照片"},
			{Type: models.PartTypeImage, Path: "images/x.jpg"},
		},
	}
	require.NoError(t, s.store.AppendMessage(ctx, "alice", msg))

	resp, err := s.FetchPending(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, resp.HasNew)
	assert.Equal(t, "看看这张照片 "+ImageAttachedMarker, resp.Content)
}

func TestFetchPendingImageOnly(t *testing.T) {
	s := newBridgeService(t)
	ctx := context.Background()

	msg := models.Message{
		Role:  models.RoleUser,
		Parts: []models.MessagePart{{Type: models.PartTypeImage, Path: "images/x.jpg"}},
	}
	require.NoError(t, s.store.AppendMessage(ctx, "alice", msg))

	resp, err := s.FetchPending(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, resp.HasNew)
	assert.Equal(t, ImageAttachedMarker, resp.Content)
}

func TestSubmitAnswerDeliversPending(t *testing.T) {
	s := newBridgeService(t)
	ctx := context.Background()

	require.NoError(t, s.store.AppendMessage(ctx, "alice", models.TextMessage(models.RoleUser, "你好")))

	accepted, err := s.SubmitAnswer(ctx, "alice", "你好呀")
	require.NoError(t, err)
	assert.True(t, accepted)

	messages, err := s.store.ReadConversation(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleModel, messages[1].Role)
	assert.Equal(t, "你好呀", messages[1].Text())

	// The answer consumed the pending state.
	resp, err := s.FetchPending(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, resp.HasNew)
}

func TestSubmitAnswerDoubleDeliveryIsNoOp(t *testing.T) {
	s := newBridgeService(t)
	ctx := context.Background()

	require.NoError(t, s.store.AppendMessage(ctx, "alice", models.TextMessage(models.RoleUser, "你好")))

	accepted, err := s.SubmitAnswer(ctx, "alice", "你好呀")
	require.NoError(t, err)
	require.True(t, accepted)

	// A worker retry after a lost response must not append a second answer.
	accepted, err = s.SubmitAnswer(ctx, "alice", "重复")
	require.NoError(t, err)
	assert.False(t, accepted)

	messages, err := s.store.ReadConversation(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "你好呀", messages[1].Text())
}

func TestSubmitAnswerNoPending(t *testing.T) {
	s := newBridgeService(t)

	accepted, err := s.SubmitAnswer(context.Background(), "alice", "无人提问")
	require.NoError(t, err)
	assert.False(t, accepted)

	messages, err := s.store.ReadConversation(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSubmitAnswerEmptyText(t *testing.T) {
	s := newBridgeService(t)

	_, err := s.SubmitAnswer(context.Background(), "alice", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSubmitAnswerConcurrentDelivery(t *testing.T) {
	s := newBridgeService(t)
	ctx := context.Background()

	require.NoError(t, s.store.AppendMessage(ctx, "alice", models.TextMessage(models.RoleUser, "你好")))

	var wg sync.WaitGroup
	acceptedCount := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			accepted, err := s.SubmitAnswer(ctx, "alice", "并发回答")
			assert.NoError(t, err)
			acceptedCount <- accepted
		}()
	}
	wg.Wait()
	close(acceptedCount)

	wins := 0
	for a := range acceptedCount {
		if a {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one racing submit should land")

	messages, err := s.store.ReadConversation(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestAppendUserMessageTextOnly(t *testing.T) {
	s := newBridgeService(t)
	ctx := context.Background()

	err := s.AppendUserMessage(ctx, "alice", models.RelayMessageRequest{Message: "帮我查个东西"})
	require.NoError(t, err)

	resp, err := s.FetchPending(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, resp.HasNew)
	assert.Equal(t, "帮我查个东西", resp.Content)
}

func TestAppendUserMessageWithImage(t *testing.T) {
	s := newBridgeService(t)
	ctx := context.Background()

	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	req := models.RelayMessageRequest{
		Message:     "这是什么",
		ImageBase64: base64.StdEncoding.EncodeToString(png),
	}
	require.NoError(t, s.AppendUserMessage(ctx, "alice", req))

	messages, err := s.store.ReadConversation(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].HasImage())

	resp, err := s.FetchPending(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(resp.Content, ImageAttachedMarker))
}

func TestAppendUserMessageRejectsBadImage(t *testing.T) {
	s := newBridgeService(t)

	err := s.AppendUserMessage(context.Background(), "alice", models.RelayMessageRequest{
		Message:     "图片坏了",
		ImageBase64: "not base64!!!",
	})
	assert.ErrorIs(t, err, ErrBadImageData)
}

func TestAppendUserMessageRejectsEmpty(t *testing.T) {
	s := newBridgeService(t)

	err := s.AppendUserMessage(context.Background(), "alice", models.RelayMessageRequest{Message: "  "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}
