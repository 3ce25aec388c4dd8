package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/omgcreativity/laojia/internal/auth"
	"github.com/omgcreativity/laojia/internal/models"
	"github.com/omgcreativity/laojia/pkg/httputil"
)

// ProfileService defines the interface expected from the profile provider.
type ProfileService interface {
	GetProfile(ctx context.Context, username string) (models.Profile, error)
	UpdateProfile(ctx context.Context, username string, profile models.Profile) error
}

type ProfileHandler struct {
	profileService ProfileService
}

func NewProfileHandler(profileSvc ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileSvc,
	}
}

// HandleGetProfile handles GET /v1/profile.
func (h *ProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), username)
	if err != nil {
		log.Printf("GetProfile handler failed for user %s: %v", username, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, profile)
}

// HandleUpdateProfile handles PUT /v1/profile.
func (h *ProfileHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.profileService.UpdateProfile(r.Context(), username, req.Profile); err != nil {
		log.Printf("UpdateProfile handler failed for user %s: %v", username, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to save profile")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, req.Profile)
}
