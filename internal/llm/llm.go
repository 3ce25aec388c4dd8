package llm

import (
	"context"
	"fmt"

	"github.com/omgcreativity/laojia/internal/models"
)

// LLM is the interface to a chat completion backend. The full prior history
// is resent on every call; the backend holds no conversation state.
type LLM interface {
	Chat(ctx context.Context, systemPrompt string, history []models.Message, prompt string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider string // currently only "gemini"
	APIKey   string
	Model    string
	BaseURL  string // override for tests; empty means the public endpoint
}

// New creates an LLM client for the configured provider.
func New(cfg Config) (LLM, error) {
	switch cfg.Provider {
	case "", "gemini":
		return newGemini(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
