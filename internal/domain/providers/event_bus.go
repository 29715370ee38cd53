package providers

import (
	"context"

	"github.com/cardwallet/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to wallet events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.CardEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.CardEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelCardUpdates carries every card and share change
const EventChannelCardUpdates = "cards:updates"
