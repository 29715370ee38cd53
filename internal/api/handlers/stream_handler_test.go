package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/cardwallet/backend/internal/api/handlers"
	"github.com/cardwallet/backend/internal/domain/entities"
	apperrors "github.com/cardwallet/backend/pkg/errors"
)

func TestStreamHandler_WritesEvents(t *testing.T) {
	svc := new(MockWalletEventService)
	ch := make(chan *entities.CardEvent, 2)
	var stream <-chan *entities.CardEvent = ch
	svc.On("Subscribe", mock.Anything, "user-1").Return(stream, nil)

	ch <- entities.NewCardEvent("user-1", "c1", entities.CardEventCreated)
	close(ch)

	h := handlers.NewStreamHandler(svc).WithHeartbeat(time.Hour)
	rec := serve("GET /api/stream/cards", h.StreamWalletEvents, httptest.NewRequest(http.MethodGet, "/api/stream/cards", nil), "user-1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "event: connected\n")
	assert.Contains(t, body, "event: card_created\n")
	assert.Contains(t, body, `"card_id":"c1"`)
}

func TestStreamHandler_Unavailable(t *testing.T) {
	svc := new(MockWalletEventService)
	svc.On("Subscribe", mock.Anything, "user-1").Return(nil, apperrors.NewExternalError("live updates are not available", nil))

	h := handlers.NewStreamHandler(svc)
	rec := serve("GET /api/stream/cards", h.StreamWalletEvents, httptest.NewRequest(http.MethodGet, "/api/stream/cards", nil), "user-1")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStreamHandler_RequiresUser(t *testing.T) {
	h := handlers.NewStreamHandler(new(MockWalletEventService))
	rec := serve("GET /api/stream/cards", h.StreamWalletEvents, httptest.NewRequest(http.MethodGet, "/api/stream/cards", nil), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
