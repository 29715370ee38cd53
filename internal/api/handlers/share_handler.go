package handlers

import (
	"context"
	"net/http"

	"github.com/cardwallet/backend/internal/domain/entities"
)

// ShareService defines the sharing operations the handler needs
type ShareService interface {
	AddShare(ctx context.Context, ownerID, email string) (*entities.Share, error)
	RemoveShare(ctx context.Context, ownerID, targetID string) error
	ListSharedWith(ctx context.Context, ownerID string) ([]*entities.Share, error)
	ListSharingWithMe(ctx context.Context, userID string) ([]*entities.Share, error)
}

// ShareHandler handles card sharing requests
type ShareHandler struct {
	service ShareService
}

// NewShareHandler creates a new share handler
func NewShareHandler(service ShareService) *ShareHandler {
	return &ShareHandler{service: service}
}

// ListShares handles GET /api/shares
func (h *ShareHandler) ListShares(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	shares, err := h.service.ListSharedWith(r.Context(), userID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"shares": shares, "count": len(shares)})
}

// ListIncoming handles GET /api/shares/incoming
func (h *ShareHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	shares, err := h.service.ListSharingWithMe(r.Context(), userID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"shares": shares, "count": len(shares)})
}

// AddShare handles POST /api/shares
func (h *ShareHandler) AddShare(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	share, err := h.service.AddShare(r.Context(), userID, req.Email)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, share)
}

// RemoveShare handles DELETE /api/shares/{userId}
func (h *ShareHandler) RemoveShare(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveShare(r.Context(), userID, r.PathValue("userId")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
