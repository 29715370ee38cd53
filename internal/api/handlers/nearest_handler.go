package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cardwallet/backend/internal/application/services"
	"github.com/cardwallet/backend/pkg/geo"
)

const coordinateRangeMessage = "lat must be within [-90, 90] and lng within [-180, 180]"

// NearestCardService defines the selection operations the handler needs
type NearestCardService interface {
	SelectNearest(ctx context.Context, userID string, in services.PositionInput) (*services.NearestResult, error)
	NearbyShops(ctx context.Context, userID string, coord geo.Coordinate, limit int) ([]services.NearbyShop, error)
}

// NearestHandler picks cards by proximity
type NearestHandler struct {
	service NearestCardService
}

// NewNearestHandler creates a new nearest handler
func NewNearestHandler(service NearestCardService) *NearestHandler {
	return &NearestHandler{service: service}
}

// SelectNearest handles POST /api/cards/nearest. The body may carry the
// device position as {"lat":..,"lng":..}; otherwise it is looked up.
func (h *NearestHandler) SelectNearest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := decodeJSON(w, r, &req, true); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	in := services.PositionInput{ClientIP: clientIP(r)}
	if req.Lat != nil && req.Lng != nil {
		coord := geo.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
		if !coord.InRange() {
			respondWithError(w, http.StatusBadRequest, coordinateRangeMessage)
			return
		}
		in.Coordinate = &coord
	}

	result, err := h.service.SelectNearest(r.Context(), userID, in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// NearbyShops handles GET /api/cards/nearby?lat=...&lng=...&limit=...
func (h *NearestHandler) NearbyShops(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lat parameter")
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lng parameter")
		return
	}

	coord := geo.Coordinate{Lat: lat, Lng: lng}
	if !coord.InRange() {
		respondWithError(w, http.StatusBadRequest, coordinateRangeMessage)
		return
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
	}

	shops, err := h.service.NearbyShops(r.Context(), userID, coord, limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"shops": shops,
		"count": len(shops),
	})
}
