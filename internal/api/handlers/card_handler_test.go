package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cardwallet/backend/internal/api/handlers"
	"github.com/cardwallet/backend/internal/api/middleware"
	"github.com/cardwallet/backend/internal/application/services"
	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/providers"
	apperrors "github.com/cardwallet/backend/pkg/errors"
	"github.com/cardwallet/backend/pkg/geo"
)

func serve(pattern string, h http.HandlerFunc, req *http.Request, userID string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCardHandler_ListCards(t *testing.T) {
	svc := new(MockCardService)
	h := handlers.NewCardHandler(svc)
	svc.On("ListAllCards", mock.Anything, "user-1").Return([]*entities.Card{
		{ID: "c1", StoreName: "Rewe"},
		{ID: "owner_c2", StoreName: "dm", Shared: true, OwnerEmail: "o@example.com"},
	}, nil)

	rec := serve("GET /api/cards", h.ListCards, httptest.NewRequest(http.MethodGet, "/api/cards", nil), "user-1")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.CardListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.True(t, resp.Cards[1].Shared)
}

func TestCardHandler_RequiresUser(t *testing.T) {
	h := handlers.NewCardHandler(new(MockCardService))

	rec := serve("GET /api/cards", h.ListCards, httptest.NewRequest(http.MethodGet, "/api/cards", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCardHandler_AddCard(t *testing.T) {
	svc := new(MockCardService)
	h := handlers.NewCardHandler(svc)

	input := services.AddCardInput{StoreName: "Rewe", Code: "123456", BarcodeType: "CODE128"}
	svc.On("AddCard", mock.Anything, "user-1", input).Return(&entities.Card{ID: "c1", StoreName: "Rewe"}, nil)

	body := `{"store_name":"Rewe","code":"123456","barcode_type":"CODE128"}`
	rec := serve("POST /api/cards", h.AddCard, httptest.NewRequest(http.MethodPost, "/api/cards", strings.NewReader(body)), "user-1")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"c1"`)
}

func TestCardHandler_AddCard_Errors(t *testing.T) {
	svc := new(MockCardService)
	h := handlers.NewCardHandler(svc)
	svc.On("AddCard", mock.Anything, "user-1", mock.Anything).Return(nil, apperrors.NewValidationError("store name is required"))

	rec := serve("POST /api/cards", h.AddCard, httptest.NewRequest(http.MethodPost, "/api/cards", strings.NewReader(`{"store_name":""}`)), "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "store name is required")

	rec = serve("POST /api/cards", h.AddCard, httptest.NewRequest(http.MethodPost, "/api/cards", strings.NewReader(`{not json`)), "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCardHandler_GetCard_NotFound(t *testing.T) {
	svc := new(MockCardService)
	h := handlers.NewCardHandler(svc)
	svc.On("GetCard", mock.Anything, "user-1", "missing").Return(nil, apperrors.NewNotFoundError("card not found"))

	rec := serve("GET /api/cards/{id}", h.GetCard, httptest.NewRequest(http.MethodGet, "/api/cards/missing", nil), "user-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCardHandler_DeleteCard_Forbidden(t *testing.T) {
	svc := new(MockCardService)
	h := handlers.NewCardHandler(svc)
	svc.On("DeleteCard", mock.Anything, "user-1", "owner_c1").Return(apperrors.NewForbiddenError("shared cards cannot be modified"))

	rec := serve("DELETE /api/cards/{id}", h.DeleteCard, httptest.NewRequest(http.MethodDelete, "/api/cards/owner_c1", nil), "user-1")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCardHandler_AddLocation(t *testing.T) {
	card := &entities.Card{ID: "c1"}
	pattern := "POST /api/cards/{id}/locations"

	t.Run("coordinate body", func(t *testing.T) {
		svc := new(MockCardService)
		h := handlers.NewCardHandler(svc)
		svc.On("AddLocation", mock.Anything, "user-1", "c1", geo.Coordinate{Lat: 52.52, Lng: 13.405}).Return(card, true, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/cards/c1/locations", strings.NewReader(`{"lat":52.52,"lng":13.405}`))
		rec := serve(pattern, h.AddLocation, req, "user-1")

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"added":true`)
	})

	t.Run("duplicate coordinate", func(t *testing.T) {
		svc := new(MockCardService)
		h := handlers.NewCardHandler(svc)
		svc.On("AddLocation", mock.Anything, "user-1", "c1", mock.Anything).Return(card, false, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/cards/c1/locations", strings.NewReader(`{"lat":52.52,"lng":13.405}`))
		rec := serve(pattern, h.AddLocation, req, "user-1")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"added":false`)
	})

	t.Run("address body", func(t *testing.T) {
		svc := new(MockCardService)
		h := handlers.NewCardHandler(svc)
		svc.On("AddLocationByAddress", mock.Anything, "user-1", "c1", "Berlin").Return(card, true, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/cards/c1/locations", strings.NewReader(`{"address":"Berlin"}`))
		rec := serve(pattern, h.AddLocation, req, "user-1")
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("empty body uses current position", func(t *testing.T) {
		svc := new(MockCardService)
		h := handlers.NewCardHandler(svc)
		svc.On("AddCurrentLocation", mock.Anything, "user-1", "c1", providers.PositionRequest{ClientIP: "203.0.113.9"}).
			Return(nil, false, apperrors.NewValidationError("could not determine your current location"))

		req := httptest.NewRequest(http.MethodPost, "/api/cards/c1/locations", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		rec := serve(pattern, h.AddLocation, req, "user-1")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("half a coordinate", func(t *testing.T) {
		h := handlers.NewCardHandler(new(MockCardService))
		req := httptest.NewRequest(http.MethodPost, "/api/cards/c1/locations", strings.NewReader(`{"lat":52.52}`))
		rec := serve(pattern, h.AddLocation, req, "user-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("latitude out of range", func(t *testing.T) {
		svc := new(MockCardService)
		h := handlers.NewCardHandler(svc)
		req := httptest.NewRequest(http.MethodPost, "/api/cards/c1/locations", strings.NewReader(`{"lat":91,"lng":13.4}`))
		rec := serve(pattern, h.AddLocation, req, "user-1")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "lat must be within")
		svc.AssertNotCalled(t, "AddLocation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCardHandler_SearchCards(t *testing.T) {
	svc := new(MockCardService)
	h := handlers.NewCardHandler(svc)
	svc.On("SearchCards", mock.Anything, "user-1", "rew", 5).Return([]*entities.Card{{ID: "c1"}}, nil)

	rec := serve("GET /api/cards/search", h.SearchCards, httptest.NewRequest(http.MethodGet, "/api/cards/search?q=rew&limit=5", nil), "user-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = serve("GET /api/cards/search", h.SearchCards, httptest.NewRequest(http.MethodGet, "/api/cards/search?q=rew&limit=x", nil), "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCardHandler_ReplaceAndClearLocations(t *testing.T) {
	svc := new(MockCardService)
	h := handlers.NewCardHandler(svc)
	locs := []geo.Coordinate{{Lat: 1, Lng: 2}}
	svc.On("ReplaceLocations", mock.Anything, "user-1", "c1", locs).Return(&entities.Card{ID: "c1", ShopLocations: locs}, nil)
	svc.On("ClearLocations", mock.Anything, "user-1", "c1").Return(&entities.Card{ID: "c1"}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/cards/c1/locations", strings.NewReader(`{"shop_locations":[{"lat":1,"lng":2}]}`))
	rec := serve("PUT /api/cards/{id}/locations", h.ReplaceLocations, req, "user-1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve("DELETE /api/cards/{id}/locations", h.ClearLocations, httptest.NewRequest(http.MethodDelete, "/api/cards/c1/locations", nil), "user-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)

	req = httptest.NewRequest(http.MethodPut, "/api/cards/c1/locations", strings.NewReader(`{"shop_locations":[{"lat":1,"lng":2},{"lat":10,"lng":200}]}`))
	rec = serve("PUT /api/cards/{id}/locations", h.ReplaceLocations, req, "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNumberOfCalls(t, "ReplaceLocations", 1)
}
