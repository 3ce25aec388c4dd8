package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/omgcreativity/laojia/internal/models"
	"github.com/omgcreativity/laojia/internal/store"
)

// ReadConversation returns the user's full conversation log in order. A
// missing log is a valid state (empty conversation, no error). A malformed
// log also reads as empty: losing history is preferable to blocking the
// whole assistant on a corrupt file.
func (s *FileStore) ReadConversation(ctx context.Context, username string) ([]models.Message, error) {
	if !validUsername(username) {
		return nil, store.ErrInvalidUsername
	}

	data, err := os.ReadFile(s.memoryPath(username))
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Message{}, nil
		}
		return nil, fmt.Errorf("failed to read conversation log: %w", err)
	}

	var messages []models.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		log.Printf("WARN: corrupt conversation log for user %s, treating as empty: %v", username, err)
		return []models.Message{}, nil
	}
	return messages, nil
}

// AppendMessage adds msg to the end of the user's log, creating the log if
// absent. The read-append-write cycle runs under the per-user mutex so
// concurrent appends within this process cannot drop each other's entries.
func (s *FileStore) AppendMessage(ctx context.Context, username string, msg models.Message) error {
	if !validUsername(username) {
		return store.ErrInvalidUsername
	}

	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()

	messages, err := s.ReadConversation(ctx, username)
	if err != nil {
		return err
	}

	messages = append(messages, msg)
	return s.writeConversation(username, messages)
}

// SaveConversation replaces the user's log wholesale. Used by the direct
// chat path, which rewrites the full history after each exchange.
func (s *FileStore) SaveConversation(ctx context.Context, username string, messages []models.Message) error {
	if !validUsername(username) {
		return store.ErrInvalidUsername
	}

	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()

	return s.writeConversation(username, messages)
}

func (s *FileStore) writeConversation(username string, messages []models.Message) error {
	if err := os.MkdirAll(s.userDir(username), 0o755); err != nil {
		return fmt.Errorf("failed to create user directory: %w", err)
	}
	if err := writeJSONAtomic(s.memoryPath(username), messages); err != nil {
		return fmt.Errorf("failed to write conversation log: %w", err)
	}
	return nil
}

// SaveImage stores raw image bytes under the user's images/ directory and
// returns the path relative to the user directory (the form referenced by
// image message parts).
func (s *FileStore) SaveImage(ctx context.Context, username string, data []byte) (string, error) {
	if !validUsername(username) {
		return "", store.ErrInvalidUsername
	}

	ext := ""
	switch http.DetectContentType(data) {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	default:
		return "", errUnsupportedImage
	}

	dir := s.imagesDir(username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create images directory: %w", err)
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return filepath.Join("images", name), nil
}
