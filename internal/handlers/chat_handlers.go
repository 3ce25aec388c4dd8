package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/omgcreativity/laojia/internal/auth"
	"github.com/omgcreativity/laojia/internal/models"
	"github.com/omgcreativity/laojia/internal/relay"
	"github.com/omgcreativity/laojia/internal/services"
	"github.com/omgcreativity/laojia/pkg/httputil"
)

// ChatService defines the interface expected from the direct chat service.
type ChatService interface {
	Chat(ctx context.Context, username, message string) (models.ChatResponse, error)
	History(ctx context.Context, username string) ([]models.Message, error)
}

// RelayProducer is the UI-facing slice of the bridge: append a user message
// for the automation worker to pick up.
type RelayProducer interface {
	AppendUserMessage(ctx context.Context, username string, req models.RelayMessageRequest) error
}

// ReplyWaiter blocks until a model reply lands or the polling window closes.
type ReplyWaiter interface {
	WaitForReply(ctx context.Context, username string) (models.Message, error)
}

// ChatHandlers handles HTTP requests for both conversation paths: direct
// LLM calls and the relay bridge producer side.
type ChatHandlers struct {
	chatService ChatService
	producer    RelayProducer
	waiter      ReplyWaiter
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(chatSvc ChatService, producer RelayProducer, waiter ReplyWaiter) *ChatHandlers {
	return &ChatHandlers{
		chatService: chatSvc,
		producer:    producer,
		waiter:      waiter,
	}
}

// HandleChat handles POST /v1/chat: the direct API path.
func (h *ChatHandlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	resp, err := h.chatService.Chat(r.Context(), username, req.Message)
	if err != nil {
		log.Printf("Chat handler failed for user %s: %v", username, err)
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrLLMNotConfigured):
			// No API quota; the client should fall back to the relay path.
			httputil.RespondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Chat failed due to an internal error")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleHistory handles GET /v1/chat/history.
func (h *ChatHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	messages, err := h.chatService.History(r.Context(), username)
	if err != nil {
		log.Printf("History handler failed for user %s: %v", username, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.HistoryResponse{Messages: messages})
}

// HandleRelayMessage handles POST /v1/chat/relay: append a user message for
// the automation worker. The client then calls HandleWait (or re-reads the
// history) to learn when the answer arrives.
func (h *ChatHandlers) HandleRelayMessage(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.RelayMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.producer.AppendUserMessage(r.Context(), username, req); err != nil {
		log.Printf("RelayMessage handler failed for user %s: %v", username, err)
		switch {
		case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrBadImageData):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to record message")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
}

// HandleWait handles GET /v1/chat/wait: block until the relay worker
// delivers a reply or the polling window closes. A timeout is a normal
// outcome, not an error status: the pending message stays in the log and a
// late answer is shown on the next refresh.
func (h *ChatHandlers) HandleWait(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	reply, err := h.waiter.WaitForReply(r.Context(), username)
	if err != nil {
		if errors.Is(err, relay.ErrWaitTimeout) {
			httputil.RespondJSON(w, http.StatusOK, models.WaitResponse{TimedOut: true})
			return
		}
		log.Printf("Wait handler failed for user %s: %v", username, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed while waiting for reply")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.WaitResponse{Reply: &reply})
}
