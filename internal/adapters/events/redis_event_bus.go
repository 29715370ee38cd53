package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/providers"
)

const subscriberBuffer = 100

// topic is one Redis subscription and the local listeners fed by it.
// Listeners belong to exactly one topic so a retiring topic can never
// close channels handed out by its replacement.
type topic struct {
	name      string
	pubsub    *redis.PubSub
	listeners map[chan *entities.CardEvent]struct{}
}

// RedisEventBus fans Redis Pub/Sub messages out to in-process card event listeners
type RedisEventBus struct {
	client redis.UniversalClient
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	topics map[string]*topic
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client redis.UniversalClient) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client,
		ctx:    ctx,
		cancel: cancel,
		topics: make(map[string]*topic),
	}
}

// Publish encodes the card event as JSON and publishes it on channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.CardEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal card event: %w", err)
	}

	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish card event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("event_id", event.ID).Str("type", string(event.EventType)).Msg("Published card event")
	return nil
}

// Subscribe registers a listener on channel. The returned channel is
// closed when ctx is done, the channel is unsubscribed or the bus is closed.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.CardEvent, error) {
	b.mu.Lock()
	t, ok := b.topics[channel]
	if !ok {
		pubsub := b.client.Subscribe(b.ctx, channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			b.mu.Unlock()
			_ = pubsub.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		t = &topic{name: channel, pubsub: pubsub, listeners: make(map[chan *entities.CardEvent]struct{})}
		b.topics[channel] = t
		go b.pump(t)
	}

	listener := make(chan *entities.CardEvent, subscriberBuffer)
	t.listeners[listener] = struct{}{}
	count := len(t.listeners)
	b.mu.Unlock()

	log.Info().Str("channel", channel).Int("listeners", count).Msg("Card event listener attached")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.detach(t, listener)
	}()

	return listener, nil
}

// pump delivers messages of one Redis subscription until it is closed
func (b *RedisEventBus) pump(t *topic) {
	defer b.retire(t)

	for msg := range t.pubsub.Channel() {
		var event entities.CardEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Warn().Err(err).Str("channel", t.name).Msg("Dropping malformed card event")
			continue
		}

		b.mu.Lock()
		for listener := range t.listeners {
			select {
			case listener <- &event:
			default:
				log.Warn().Str("channel", t.name).Str("event_id", event.ID).Msg("Listener is behind, dropping card event")
			}
		}
		b.mu.Unlock()
	}
}

// detach drops one listener. The topic's Redis subscription is released
// with its last listener.
func (b *RedisEventBus) detach(t *topic, listener chan *entities.CardEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := t.listeners[listener]; !ok {
		return
	}
	delete(t.listeners, listener)
	close(listener)

	if len(t.listeners) == 0 {
		b.release(t)
	}
}

// retire closes whatever listeners remain on t. Must not hold b.mu.
func (b *RedisEventBus) retire(t *topic) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for listener := range t.listeners {
		close(listener)
	}
	clear(t.listeners)
	if err := b.release(t); err != nil {
		log.Error().Err(err).Str("channel", t.name).Msg("Failed to release card event subscription")
	}
}

// release unregisters t if it is still the current topic for its channel
// and closes its Redis subscription. Caller holds b.mu.
func (b *RedisEventBus) release(t *topic) error {
	if b.topics[t.name] == t {
		delete(b.topics, t.name)
	}
	if err := t.pubsub.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("failed to close subscription %s: %w", t.name, err)
	}
	return nil
}

// Unsubscribe ends the current subscription on channel and closes its listeners
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	t, ok := b.topics[channel]
	b.mu.Unlock()
	if !ok {
		return nil
	}
	b.retire(t)
	return nil
}

// Close stops every subscription held by the bus
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	current := make([]*topic, 0, len(b.topics))
	for _, t := range b.topics {
		current = append(current, t)
	}
	b.mu.Unlock()

	for _, t := range current {
		b.retire(t)
	}
	return nil
}
