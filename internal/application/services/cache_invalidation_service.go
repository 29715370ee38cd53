package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/internal/domain/repositories"
	"github.com/cardwallet/backend/internal/infrastructure/observability"
)

// CacheInvalidationService drops cached card lists when wallets or shares change
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	shares   repositories.ShareRepository
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus, shares repositories.ShareRepository) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		shares:   shares,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelCardUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to card updates: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	observability.GetLogger().Info().Msg("Cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if s.started {
		<-s.done
	}
	observability.GetLogger().Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.CardEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.HandleEvent(event)
		}
	}
}

// HandleEvent invalidates the lists affected by one event
func (s *CacheInvalidationService) HandleEvent(event *entities.CardEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := observability.GetLogger().With().
		Str("event_id", event.ID).
		Str("event_type", string(event.EventType)).
		Str("owner_id", event.OwnerID).
		Logger()

	var keys []string
	switch event.EventType {
	case entities.CardEventShareAdded, entities.CardEventShareRemoved:
		keys = append(keys, providers.SharedCardListCacheKey(event.TargetID))
	default:
		keys = append(keys, providers.CardListCacheKey(event.OwnerID))
		sharedWith, err := s.shares.ListSharedWith(ctx, event.OwnerID)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to list share targets for invalidation")
		}
		for _, share := range sharedWith {
			keys = append(keys, providers.SharedCardListCacheKey(share.TargetID))
		}
	}

	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Failed to invalidate card list cache")
		}
	}
	logger.Debug().Int("keys", len(keys)).Msg("Invalidated card list caches")
}

// InvalidateAll drops every cached card list. Used after bulk changes such
// as a reindex.
func (s *CacheInvalidationService) InvalidateAll(ctx context.Context) error {
	patterns := []string{
		providers.CardListCacheKey("*"),
		providers.SharedCardListCacheKey("*"),
	}
	for _, pattern := range patterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
	}
	return nil
}
