package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cardwallet/backend/internal/application/services"
	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/pkg/geo"
)

// CardService defines the card operations the handler needs
type CardService interface {
	AddCard(ctx context.Context, ownerID string, input services.AddCardInput) (*entities.Card, error)
	GetCard(ctx context.Context, userID, id string) (*entities.Card, error)
	ListAllCards(ctx context.Context, userID string) ([]*entities.Card, error)
	ReplaceLocations(ctx context.Context, userID, cardID string, locations []geo.Coordinate) (*entities.Card, error)
	ClearLocations(ctx context.Context, userID, cardID string) (*entities.Card, error)
	AddLocation(ctx context.Context, userID, cardID string, loc geo.Coordinate) (*entities.Card, bool, error)
	AddCurrentLocation(ctx context.Context, userID, cardID string, req providers.PositionRequest) (*entities.Card, bool, error)
	AddLocationByAddress(ctx context.Context, userID, cardID, address string) (*entities.Card, bool, error)
	DeleteCard(ctx context.Context, userID, cardID string) error
	SearchCards(ctx context.Context, userID, query string, limit int) ([]*entities.Card, error)
}

// CardHandler handles wallet card requests
type CardHandler struct {
	service CardService
}

// NewCardHandler creates a new card handler
func NewCardHandler(service CardService) *CardHandler {
	return &CardHandler{service: service}
}

// CardListResponse wraps a list of cards
type CardListResponse struct {
	Cards []*entities.Card `json:"cards"`
	Count int              `json:"count"`
}

// LocationResponse reports the card after a location was added
type LocationResponse struct {
	Card  *entities.Card `json:"card"`
	Added bool           `json:"added"`
}

// ListCards handles GET /api/cards
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	cards, err := h.service.ListAllCards(r.Context(), userID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, CardListResponse{Cards: cards, Count: len(cards)})
}

// AddCard handles POST /api/cards
func (h *CardHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input services.AddCardInput
	if err := decodeJSON(w, r, &input, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	card, err := h.service.AddCard(r.Context(), userID, input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, card)
}

// SearchCards handles GET /api/cards/search?q=...&limit=...
func (h *CardHandler) SearchCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	cards, err := h.service.SearchCards(r.Context(), userID, r.URL.Query().Get("q"), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, CardListResponse{Cards: cards, Count: len(cards)})
}

// GetCard handles GET /api/cards/{id}
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	card, err := h.service.GetCard(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, card)
}

// DeleteCard handles DELETE /api/cards/{id}
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteCard(r.Context(), userID, r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ReplaceLocations handles PUT /api/cards/{id}/locations
func (h *CardHandler) ReplaceLocations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ShopLocations []geo.Coordinate `json:"shop_locations"`
	}
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	for _, loc := range req.ShopLocations {
		if !loc.InRange() {
			respondWithError(w, http.StatusBadRequest, coordinateRangeMessage)
			return
		}
	}

	card, err := h.service.ReplaceLocations(r.Context(), userID, r.PathValue("id"), req.ShopLocations)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, card)
}

// ClearLocations handles DELETE /api/cards/{id}/locations
func (h *CardHandler) ClearLocations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	card, err := h.service.ClearLocations(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, card)
}

type addLocationRequest struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Address string   `json:"address"`
}

// AddLocation handles POST /api/cards/{id}/locations. The body is either a
// coordinate, an address to geocode, or empty to use the caller's position.
func (h *CardHandler) AddLocation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req addLocationRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	cardID := r.PathValue("id")
	var (
		card  *entities.Card
		added bool
		err   error
	)
	switch {
	case req.Lat != nil && req.Lng != nil:
		loc := geo.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
		if !loc.InRange() {
			respondWithError(w, http.StatusBadRequest, coordinateRangeMessage)
			return
		}
		card, added, err = h.service.AddLocation(r.Context(), userID, cardID, loc)
	case req.Lat != nil || req.Lng != nil:
		respondWithError(w, http.StatusBadRequest, "both lat and lng are required")
		return
	case req.Address != "":
		card, added, err = h.service.AddLocationByAddress(r.Context(), userID, cardID, req.Address)
	default:
		card, added, err = h.service.AddCurrentLocation(r.Context(), userID, cardID, providers.PositionRequest{ClientIP: clientIP(r)})
	}
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, LocationResponse{Card: card, Added: added})
}
