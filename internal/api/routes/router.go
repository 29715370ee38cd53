package routes

import (
	"net/http"

	"github.com/cardwallet/backend/internal/api/handlers"
	"github.com/cardwallet/backend/internal/api/middleware"
	"github.com/cardwallet/backend/internal/domain/repositories"
	"github.com/cardwallet/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	authHandler    *handlers.AuthHandler
	profileHandler *handlers.ProfileHandler
	cardHandler    *handlers.CardHandler
	nearestHandler *handlers.NearestHandler
	shareHandler   *handlers.ShareHandler
	streamHandler  *handlers.StreamHandler

	tokens         middleware.TokenValidator
	cardRepo       repositories.CardRepository
	allowedOrigins []string
	metrics        *observability.Metrics
}

// Dependencies groups what the router needs to build the handler chain
type Dependencies struct {
	AuthHandler    *handlers.AuthHandler
	ProfileHandler *handlers.ProfileHandler
	CardHandler    *handlers.CardHandler
	NearestHandler *handlers.NearestHandler
	ShareHandler   *handlers.ShareHandler
	StreamHandler  *handlers.StreamHandler

	Tokens         middleware.TokenValidator
	CardRepo       repositories.CardRepository
	AllowedOrigins []string
	Metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(deps Dependencies) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		authHandler:    deps.AuthHandler,
		profileHandler: deps.ProfileHandler,
		cardHandler:    deps.CardHandler,
		nearestHandler: deps.NearestHandler,
		shareHandler:   deps.ShareHandler,
		streamHandler:  deps.StreamHandler,
		tokens:         deps.Tokens,
		cardRepo:       deps.CardRepo,
		allowedOrigins: deps.AllowedOrigins,
		metrics:        deps.Metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth endpoints
	r.mux.HandleFunc("POST /api/auth/register", r.authHandler.Register)
	r.mux.HandleFunc("POST /api/auth/login", r.authHandler.Login)
	r.authed("POST /api/auth/logout", r.authHandler.Logout)

	// Profile endpoints
	r.authed("GET /api/profile", r.profileHandler.GetProfile)
	r.authed("PATCH /api/profile", r.profileHandler.UpdateProfile)

	// Card endpoints
	r.authed("GET /api/cards", r.cardHandler.ListCards)
	r.authed("POST /api/cards", r.cardHandler.AddCard)
	r.authed("GET /api/cards/search", r.cardHandler.SearchCards)
	r.authed("GET /api/cards/{id}", r.cardHandler.GetCard)
	r.authed("DELETE /api/cards/{id}", r.cardHandler.DeleteCard)
	r.authed("PUT /api/cards/{id}/locations", r.cardHandler.ReplaceLocations)
	r.authed("DELETE /api/cards/{id}/locations", r.cardHandler.ClearLocations)
	r.authed("POST /api/cards/{id}/locations", r.cardHandler.AddLocation)

	// Proximity endpoints
	r.authed("POST /api/cards/nearest", r.nearestHandler.SelectNearest)
	r.authed("GET /api/cards/nearby", r.nearestHandler.NearbyShops)

	// Sharing endpoints
	r.authed("GET /api/shares", r.shareHandler.ListShares)
	r.authed("POST /api/shares", r.shareHandler.AddShare)
	r.authed("GET /api/shares/incoming", r.shareHandler.ListIncoming)
	r.authed("DELETE /api/shares/{userId}", r.shareHandler.RemoveShare)

	// Live wallet updates
	if r.streamHandler != nil {
		r.authed("GET /api/stream/cards", r.streamHandler.StreamWalletEvents)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so rejected requests also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.Compression(handler)
	handler = middleware.NoStore(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}

// authed registers a route behind bearer-token auth with per-request loaders
func (r *Router) authed(pattern string, h http.HandlerFunc) {
	var handler http.Handler = h
	if r.cardRepo != nil {
		handler = middleware.LoadersMiddleware(r.cardRepo)(handler)
	}
	handler = middleware.AuthMiddleware(r.tokens)(handler)
	r.mux.Handle(pattern, handler)
}
