package handlers

import (
	"context"
	"net/http"

	"github.com/cardwallet/backend/internal/application/services"
	"github.com/cardwallet/backend/internal/domain/entities"
)

// ProfileService defines the profile operations the handler needs
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*services.Profile, error)
	UpdateUsername(ctx context.Context, userID, username string) (*entities.User, error)
}

// ProfileHandler handles profile requests
type ProfileHandler struct {
	service ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(service ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// GetProfile handles GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PATCH /api/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	user, err := h.service.UpdateUsername(r.Context(), userID, req.Username)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}
