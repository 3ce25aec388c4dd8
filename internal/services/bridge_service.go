package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/omgcreativity/laojia/internal/models"
	"github.com/omgcreativity/laojia/internal/store"
)

// ImageAttachedMarker is appended to the pending content returned by
// FetchPending when the user's message carries an image part, so the relay
// worker knows to fetch the image out of band before driving a
// vision-capable page.
const ImageAttachedMarker = "[图片已上传，请另行获取]"

// Custom errors for the bridge service.
var (
	ErrEmptyMessage = errors.New("message cannot be empty")
	ErrBadImageData = errors.New("invalid image data")
)

// BridgeService implements the relay handoff between the UI-side producer
// and the automation-side consumer. There is no queue: the condition "last
// log entry has role user" IS the pending-request marker. Keep it that way;
// a separate status field could desync from the log.
//
// The submit guard's check-then-append runs under a per-user mutex, so two
// racing SubmitAnswer calls within this process append exactly one answer.
// A second server process writing the same data directory is not protected;
// add an advisory lock file before deploying that way.
type BridgeService struct {
	store store.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewBridgeService creates a new BridgeService.
func NewBridgeService(s store.Store) *BridgeService {
	return &BridgeService{
		store: s,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *BridgeService) userLock(username string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[username]
	if !ok {
		l = &sync.Mutex{}
		s.locks[username] = l
	}
	return l
}

// FetchPending reports whether the user has an unanswered message and, if
// so, its displayable text (all text parts concatenated, image marker
// appended when an image part is attached).
//
// This is a pure read: repeated or concurrent polls never consume or mutate
// anything, which is what makes unbounded polling safe.
func (s *BridgeService) FetchPending(ctx context.Context, username string) (models.BridgeFetchResponse, error) {
	messages, err := s.store.ReadConversation(ctx, username)
	if err != nil {
		return models.BridgeFetchResponse{}, fmt.Errorf("failed to read conversation: %w", err)
	}

	if len(messages) == 0 {
		return models.BridgeFetchResponse{HasNew: false}, nil
	}

	last := messages[len(messages)-1]
	if last.Role != models.RoleUser {
		return models.BridgeFetchResponse{HasNew: false}, nil
	}

	content := last.Text()
	if last.HasImage() {
		content = strings.TrimSpace(content + " " + ImageAttachedMarker)
	}

	return models.BridgeFetchResponse{HasNew: true, Content: content}, nil
}

// SubmitAnswer appends a model reply for the user's pending message. When
// the last entry is not a user message (the question was already answered,
// or none was ever asked) the call is a no-op returning false. That guard
// keeps the protocol idempotent under worker retries and double delivery.
func (s *BridgeService) SubmitAnswer(ctx context.Context, username, text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, ErrEmptyMessage
	}

	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()

	messages, err := s.store.ReadConversation(ctx, username)
	if err != nil {
		return false, fmt.Errorf("failed to read conversation: %w", err)
	}

	if len(messages) == 0 || messages[len(messages)-1].Role != models.RoleUser {
		log.Printf("Bridge: duplicate or unexpected answer for user %s ignored", username)
		return false, nil
	}

	if err := s.store.AppendMessage(ctx, username, models.TextMessage(models.RoleModel, text)); err != nil {
		return false, fmt.Errorf("failed to append answer: %w", err)
	}
	return true, nil
}

// AppendUserMessage appends the user's prompt (and optional base64 image)
// to the log, making it the pending request the relay worker will pick up.
// The UI is expected not to send a new prompt while one is pending; the
// store does not enforce that.
func (s *BridgeService) AppendUserMessage(ctx context.Context, username string, req models.RelayMessageRequest) error {
	if strings.TrimSpace(req.Message) == "" && req.ImageBase64 == "" {
		return ErrEmptyMessage
	}

	msg := models.Message{Role: models.RoleUser}
	if strings.TrimSpace(req.Message) != "" {
		msg.Parts = append(msg.Parts, models.MessagePart{Type: models.PartTypeText, Text: req.Message})
	}

	if req.ImageBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadImageData, err)
		}
		relPath, err := s.store.SaveImage(ctx, username, data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadImageData, err)
		}
		msg.Parts = append(msg.Parts, models.MessagePart{Type: models.PartTypeImage, Path: relPath})
	}

	if err := s.store.AppendMessage(ctx, username, msg); err != nil {
		return fmt.Errorf("failed to append user message: %w", err)
	}
	return nil
}
