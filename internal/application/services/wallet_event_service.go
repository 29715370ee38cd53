package services

import (
	"context"
	"fmt"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/internal/domain/repositories"
	"github.com/cardwallet/backend/internal/infrastructure/observability"
	apperrors "github.com/cardwallet/backend/pkg/errors"
)

const walletEventBuffer = 16

// WalletEventService streams the card events a user can see: changes to
// their own wallet, to wallets shared with them, and shares naming them.
type WalletEventService struct {
	eventBus providers.EventBus
	shares   repositories.ShareRepository
}

// NewWalletEventService creates a new wallet event service. eventBus may be nil,
// in which case Subscribe reports the stream as unavailable.
func NewWalletEventService(eventBus providers.EventBus, shares repositories.ShareRepository) *WalletEventService {
	return &WalletEventService{eventBus: eventBus, shares: shares}
}

// Subscribe returns a channel of events relevant to userID. The channel is
// closed when ctx is done or the bus stops delivering.
func (s *WalletEventService) Subscribe(ctx context.Context, userID string) (<-chan *entities.CardEvent, error) {
	if s.eventBus == nil {
		return nil, apperrors.NewExternalError("live updates are not available", nil)
	}

	incoming, err := s.shares.ListSharingWithMe(ctx, userID)
	if err != nil {
		return nil, err
	}
	sharers := make(map[string]struct{}, len(incoming))
	for _, share := range incoming {
		sharers[share.OwnerID] = struct{}{}
	}

	events, err := s.eventBus.Subscribe(ctx, providers.EventChannelCardUpdates)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to subscribe to wallet updates", fmt.Errorf("subscribe: %w", err))
	}

	out := make(chan *entities.CardEvent, walletEventBuffer)
	go s.forward(ctx, userID, sharers, events, out)
	return out, nil
}

func (s *WalletEventService) forward(ctx context.Context, userID string, sharers map[string]struct{}, events <-chan *entities.CardEvent, out chan<- *entities.CardEvent) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event == nil || !relevantTo(userID, sharers, event) {
				continue
			}
			select {
			case out <- event:
			default:
				observability.LoggerFromContext(ctx).Warn().Str("event_id", event.ID).Msg("Wallet stream full, dropping event")
			}
		}
	}
}

// relevantTo also tracks share changes so later card events from a new
// sharer are delivered and those from a former sharer are not.
func relevantTo(userID string, sharers map[string]struct{}, event *entities.CardEvent) bool {
	switch event.EventType {
	case entities.CardEventShareAdded:
		if event.TargetID == userID {
			sharers[event.OwnerID] = struct{}{}
			return true
		}
		return event.OwnerID == userID
	case entities.CardEventShareRemoved:
		if event.TargetID == userID {
			delete(sharers, event.OwnerID)
			return true
		}
		return event.OwnerID == userID
	}

	if event.OwnerID == userID {
		return true
	}
	_, shared := sharers[event.OwnerID]
	return shared
}
