package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/omgcreativity/laojia/internal/llm"
	"github.com/omgcreativity/laojia/internal/models"
	"github.com/omgcreativity/laojia/internal/store"
	"github.com/omgcreativity/laojia/internal/tts"
)

// ErrLLMNotConfigured is returned by the direct chat path when no API key is
// available. The relay path is the fallback in that deployment.
var ErrLLMNotConfigured = errors.New("llm backend is not configured")

const basePrompt = `你叫“老贾”，是一个永不失忆、声音温暖的私人AI助理。
你的回复将被转换成语音，所以：
1. 尽量口语化，不要列太长的清单。
2. 简练，像聊微信语音一样，不要长篇大论。
3. 语气要亲切、自然。`

// ChatService handles the direct (API-key) conversation path: build the
// personalized system prompt, send the full history plus the new prompt to
// the model, persist both turns, and optionally synthesize speech.
type ChatService struct {
	store store.Store
	model llm.LLM
	voice *tts.Synthesizer // nil when synthesis is disabled
}

// NewChatService creates a new ChatService. model may be nil when no API key
// is configured; voice may be nil when TTS is disabled.
func NewChatService(s store.Store, model llm.LLM, voice *tts.Synthesizer) *ChatService {
	return &ChatService{
		store: s,
		model: model,
		voice: voice,
	}
}

// buildSystemPrompt folds the user's profile into the base persona so the
// assistant addresses its owner properly.
func buildSystemPrompt(username string, profile models.Profile) string {
	nickname := profile.Nickname
	if nickname == "" {
		nickname = username
	}
	style := profile.Style
	if style == "" {
		style = models.DefaultStyle
	}

	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\n【用户信息】\n")
	fmt.Fprintf(&b, "你的主人叫: %s\n", nickname)
	fmt.Fprintf(&b, "性别: %s\n", orUnknown(profile.Gender))
	fmt.Fprintf(&b, "年龄段: %s\n", orUnknown(profile.Age))
	fmt.Fprintf(&b, "职业: %s\n", orUnknown(profile.Occupation))
	fmt.Fprintf(&b, "兴趣爱好: %s\n", orUnknown(profile.Hobbies))
	fmt.Fprintf(&b, "希望你的说话风格: %s\n", style)
	b.WriteString("请根据这些信息调整你的语气和话题，更好地服务主人。")
	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "未知"
	}
	return s
}

// Chat sends the user's message to the model with the full prior history and
// persists the exchange. Returns the reply and, when TTS is enabled, a path
// to the synthesized audio (relative to the user's data directory).
func (s *ChatService) Chat(ctx context.Context, username, message string) (models.ChatResponse, error) {
	if strings.TrimSpace(message) == "" {
		return models.ChatResponse{}, ErrEmptyMessage
	}
	if s.model == nil {
		return models.ChatResponse{}, ErrLLMNotConfigured
	}

	history, err := s.store.ReadConversation(ctx, username)
	if err != nil {
		return models.ChatResponse{}, fmt.Errorf("failed to read conversation: %w", err)
	}

	profile, err := s.store.LoadProfile(ctx, username)
	if err != nil {
		return models.ChatResponse{}, fmt.Errorf("failed to load profile: %w", err)
	}

	reply, err := s.model.Chat(ctx, buildSystemPrompt(username, profile), history, message)
	if err != nil {
		return models.ChatResponse{}, fmt.Errorf("generation failed: %w", err)
	}

	history = append(history,
		models.TextMessage(models.RoleUser, message),
		models.TextMessage(models.RoleModel, reply),
	)
	if err := s.store.SaveConversation(ctx, username, history); err != nil {
		return models.ChatResponse{}, fmt.Errorf("failed to persist conversation: %w", err)
	}

	resp := models.ChatResponse{Reply: reply}
	if s.voice != nil {
		audioPath, err := s.voice.Synthesize(ctx, username, reply)
		if err != nil {
			// Speech is a rendering side effect; a synthesis failure must
			// never lose the reply.
			log.Printf("Warning: TTS synthesis failed for user %s: %v", username, err)
		} else {
			resp.AudioPath = audioPath
		}
	}

	return resp, nil
}

// History returns the user's full conversation log for rendering.
func (s *ChatService) History(ctx context.Context, username string) ([]models.Message, error) {
	return s.store.ReadConversation(ctx, username)
}
