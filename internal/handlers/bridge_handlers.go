package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/omgcreativity/laojia/internal/models"
	"github.com/omgcreativity/laojia/pkg/httputil"
)

// BridgeService defines the protocol operations the bridge surface exposes.
type BridgeService interface {
	FetchPending(ctx context.Context, username string) (models.BridgeFetchResponse, error)
	SubmitAnswer(ctx context.Context, username, text string) (bool, error)
}

// BridgeHandler serves the query-parameter-addressed relay surface at "/".
// It is deliberately unauthenticated: the automation worker is a headless
// browser with no credentials, and FetchPending leaks only the user's own
// last prompt to whoever knows the username. Responses are HTML pages
// carrying a BRIDGE_DATA:<json>:END marker in the body so the worker can
// scrape them out of rendered page text; a page WITHOUT the marker is the
// "not ready / wrong state" signal.
type BridgeHandler struct {
	bridgeService BridgeService
}

func NewBridgeHandler(bridgeSvc BridgeService) *BridgeHandler {
	return &BridgeHandler{
		bridgeService: bridgeSvc,
	}
}

// HandleBridge dispatches GET /?action=get|put&user=<id>[&msg=<text>].
func (h *BridgeHandler) HandleBridge(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	username := r.URL.Query().Get("user")

	if username == "" {
		httputil.RespondPlainPage(w, "老贾 relay bridge")
		return
	}

	switch action {
	case "get":
		h.handleGet(w, r, username)
	case "put":
		h.handlePut(w, r, username)
	default:
		httputil.RespondPlainPage(w, "老贾 relay bridge")
	}
}

func (h *BridgeHandler) handleGet(w http.ResponseWriter, r *http.Request, username string) {
	resp, err := h.bridgeService.FetchPending(r.Context(), username)
	if err != nil {
		log.Printf("Bridge fetch failed for user %s: %v", username, err)
		// No marker: the worker retries on its next poll.
		httputil.RespondPlainPage(w, "bridge error")
		return
	}

	httputil.RespondBridgePage(w, resp)
}

func (h *BridgeHandler) handlePut(w http.ResponseWriter, r *http.Request, username string) {
	msg := r.URL.Query().Get("msg")

	accepted, err := h.bridgeService.SubmitAnswer(r.Context(), username, msg)
	if err != nil {
		log.Printf("Bridge submit failed for user %s: %v", username, err)
		httputil.RespondPlainPage(w, "bridge error")
		return
	}
	if !accepted {
		// Idempotence guard rejected the submit; deliberately no marker and
		// no success tag.
		httputil.RespondPlainPage(w, "nothing pending")
		return
	}

	httputil.RespondBridgePage(w, models.BridgeSubmitResponse{Status: "success"})
}
