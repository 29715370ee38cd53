package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cardwallet/backend/internal/api/middleware"
	"github.com/cardwallet/backend/internal/domain/entities"
)

// AuthService defines the account operations the handler needs
type AuthService interface {
	Register(ctx context.Context, email, password string) (*entities.User, *entities.Session, error)
	Login(ctx context.Context, email, password string) (*entities.User, *entities.Session, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles registration and sessions
type AuthHandler struct {
	service AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned after a successful register or login
type AuthResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *entities.User `json:"user"`
}

func newAuthResponse(user *entities.User, session *entities.Session) AuthResponse {
	return AuthResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      user,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	user, session, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, newAuthResponse(user, session))
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	user, session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, newAuthResponse(user, session))
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.TokenFromContext(r.Context())); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
