package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/cardwallet/backend/internal/api/handlers"
	"github.com/cardwallet/backend/internal/application/services"
	"github.com/cardwallet/backend/internal/domain/entities"
	apperrors "github.com/cardwallet/backend/pkg/errors"
	"github.com/cardwallet/backend/pkg/geo"
)

func TestNearestHandler_SelectNearest_WithCoordinate(t *testing.T) {
	svc := new(MockNearestService)
	h := handlers.NewNearestHandler(svc)

	dist := 1.5
	loc := geo.Coordinate{Lat: 52.5, Lng: 13.4}
	svc.On("SelectNearest", mock.Anything, "user-1", mock.MatchedBy(func(in services.PositionInput) bool {
		return in.Coordinate != nil && *in.Coordinate == geo.Coordinate{Lat: 52.51, Lng: 13.41}
	})).Return(&services.NearestResult{
		Card:       &entities.Card{ID: "c1"},
		Location:   &loc,
		DistanceKm: &dist,
		Strategy:   services.StrategyNearest,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/cards/nearest", strings.NewReader(`{"lat":52.51,"lng":13.41}`))
	rec := serve("POST /api/cards/nearest", h.SelectNearest, req, "user-1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"strategy":"nearest"`)
	assert.Contains(t, rec.Body.String(), `"distance_km":1.5`)
}

func TestNearestHandler_SelectNearest_WithoutBody(t *testing.T) {
	svc := new(MockNearestService)
	h := handlers.NewNearestHandler(svc)
	svc.On("SelectNearest", mock.Anything, "user-1", services.PositionInput{ClientIP: "192.0.2.1"}).
		Return(&services.NearestResult{Card: &entities.Card{ID: "c9"}, Strategy: services.StrategyRandomFallback}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/cards/nearest", nil)
	rec := serve("POST /api/cards/nearest", h.SelectNearest, req, "user-1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"strategy":"random_fallback"`)
	assert.NotContains(t, rec.Body.String(), "distance_km")
}

func TestNearestHandler_SelectNearest_Errors(t *testing.T) {
	svc := new(MockNearestService)
	h := handlers.NewNearestHandler(svc)
	svc.On("SelectNearest", mock.Anything, "empty", mock.Anything).Return(nil, apperrors.NewNotFoundError("no cards in wallet"))
	svc.On("SelectNearest", mock.Anything, "broken", mock.Anything).Return(nil, errors.New("boom"))

	rec := serve("POST /api/cards/nearest", h.SelectNearest, httptest.NewRequest(http.MethodPost, "/api/cards/nearest", nil), "empty")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve("POST /api/cards/nearest", h.SelectNearest, httptest.NewRequest(http.MethodPost, "/api/cards/nearest", nil), "broken")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestNearestHandler_NearbyShops(t *testing.T) {
	svc := new(MockNearestService)
	h := handlers.NewNearestHandler(svc)
	svc.On("NearbyShops", mock.Anything, "user-1", geo.Coordinate{Lat: 48.1, Lng: 11.5}, 3).
		Return([]services.NearbyShop{{Card: &entities.Card{ID: "c1"}, DistanceKm: 0.4}}, nil)

	rec := serve("GET /api/cards/nearby", h.NearbyShops, httptest.NewRequest(http.MethodGet, "/api/cards/nearby?lat=48.1&lng=11.5&limit=3", nil), "user-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = serve("GET /api/cards/nearby", h.NearbyShops, httptest.NewRequest(http.MethodGet, "/api/cards/nearby?lat=abc&lng=11.5", nil), "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNearestHandler_RejectsNonFiniteOrOutOfRange(t *testing.T) {
	svc := new(MockNearestService)
	h := handlers.NewNearestHandler(svc)

	for _, query := range []string{"lat=NaN&lng=13.4", "lat=52.5&lng=Inf", "lat=-91&lng=13.4", "lat=52.5&lng=180.5"} {
		rec := serve("GET /api/cards/nearby", h.NearbyShops, httptest.NewRequest(http.MethodGet, "/api/cards/nearby?"+query, nil), "user-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
		assert.Contains(t, rec.Body.String(), "lat must be within", query)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/cards/nearest", strings.NewReader(`{"lat":95,"lng":13.4}`))
	rec := serve("POST /api/cards/nearest", h.SelectNearest, req, "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertNotCalled(t, "NearbyShops", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "SelectNearest", mock.Anything, mock.Anything, mock.Anything)
}
