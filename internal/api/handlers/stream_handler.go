package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/infrastructure/observability"
	apperrors "github.com/cardwallet/backend/pkg/errors"
)

const defaultHeartbeatInterval = 30 * time.Second

// WalletEventService defines the subscription the stream handler needs
type WalletEventService interface {
	Subscribe(ctx context.Context, userID string) (<-chan *entities.CardEvent, error)
}

// StreamHandler pushes wallet changes to clients as Server-Sent Events
type StreamHandler struct {
	service   WalletEventService
	heartbeat time.Duration
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(service WalletEventService) *StreamHandler {
	return &StreamHandler{service: service, heartbeat: defaultHeartbeatInterval}
}

// WithHeartbeat changes the keep-alive interval
func (h *StreamHandler) WithHeartbeat(interval time.Duration) *StreamHandler {
	h.heartbeat = interval
	return h
}

// StreamWalletEvents handles GET /api/stream/cards
func (h *StreamHandler) StreamWalletEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	events, err := h.service.Subscribe(r.Context(), userID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeExternal) {
			observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("Wallet stream unavailable")
			respondWithError(w, http.StatusServiceUnavailable, "live updates are not available")
			return
		}
		respondWithAppError(w, r, err)
		return
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	h.sendEvent(w, "connected", map[string]interface{}{
		"user_id":   userID,
		"timestamp": time.Now().UTC(),
	})
	if err := rc.Flush(); err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("Streaming not supported")
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{"timestamp": time.Now().UTC()})
		case event, ok := <-events:
			if !ok {
				return
			}
			h.sendEvent(w, string(event.EventType), event)
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func (h *StreamHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
}
