package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/pkg/geo"
)

// PositionProvider mocks providers.PositionProvider
type PositionProvider struct {
	mock.Mock
}

var _ providers.PositionProvider = (*PositionProvider)(nil)

func (m *PositionProvider) Name() string {
	return "mock"
}

func (m *PositionProvider) CurrentPosition(ctx context.Context, req providers.PositionRequest) (geo.Coordinate, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(geo.Coordinate), args.Error(1)
}

func (m *PositionProvider) Geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(geo.Coordinate), args.Error(1)
}

// EventBus records published events and hands out channels to subscribers
type EventBus struct {
	mu          sync.Mutex
	published   []*entities.CardEvent
	subscribers map[string][]chan *entities.CardEvent
}

var _ providers.EventBus = (*EventBus)(nil)

// NewEventBus creates a new in-memory event bus
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]chan *entities.CardEvent)}
}

func (b *EventBus) Publish(ctx context.Context, channel string, event *entities.CardEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
	for _, ch := range b.subscribers[channel] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (b *EventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.CardEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan *entities.CardEvent, 16)
	b.subscribers[channel] = append(b.subscribers[channel], ch)
	return ch, nil
}

func (b *EventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers[channel] {
		close(ch)
	}
	delete(b.subscribers, channel)
	return nil
}

func (b *EventBus) Close() error {
	b.mu.Lock()
	channels := make([]string, 0, len(b.subscribers))
	for channel := range b.subscribers {
		channels = append(channels, channel)
	}
	b.mu.Unlock()
	for _, channel := range channels {
		_ = b.Unsubscribe(context.Background(), channel)
	}
	return nil
}

// Published returns the event types published so far
func (b *EventBus) Published() []entities.CardEventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]entities.CardEventType, 0, len(b.published))
	for _, e := range b.published {
		types = append(types, e.EventType)
	}
	return types
}
