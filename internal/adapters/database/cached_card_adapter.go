package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/internal/domain/repositories"
	"github.com/cardwallet/backend/internal/infrastructure/observability"
	"github.com/cardwallet/backend/pkg/geo"
)

const cardListCacheName = "card_list"

// CachedCardAdapter wraps a CardRepository and caches per-owner card lists
type CachedCardAdapter struct {
	adapter    repositories.CardRepository
	cache      providers.CacheProvider
	ttlSeconds int
	metrics    *observability.Metrics
}

// NewCachedCardAdapter creates a new cached card adapter
func NewCachedCardAdapter(adapter repositories.CardRepository, cache providers.CacheProvider, ttl time.Duration, metrics *observability.Metrics) repositories.CardRepository {
	return &CachedCardAdapter{
		adapter:    adapter,
		cache:      cache,
		ttlSeconds: int(ttl.Seconds()),
		metrics:    metrics,
	}
}

func (a *CachedCardAdapter) invalidate(ctx context.Context, ownerID string) {
	if err := a.cache.Delete(ctx, providers.CardListCacheKey(ownerID)); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("owner_id", ownerID).Msg("Failed to invalidate card list cache")
	}
}

// Create stores a card and drops the owner's cached list
func (a *CachedCardAdapter) Create(ctx context.Context, card *entities.Card) error {
	if err := a.adapter.Create(ctx, card); err != nil {
		return err
	}
	a.invalidate(ctx, card.OwnerID)
	return nil
}

// GetByID is not cached
func (a *CachedCardAdapter) GetByID(ctx context.Context, ownerID, id string) (*entities.Card, error) {
	return a.adapter.GetByID(ctx, ownerID, id)
}

// ListByOwner serves the owner's card list from cache when present
func (a *CachedCardAdapter) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Card, error) {
	key := providers.CardListCacheKey(ownerID)

	if cached, err := a.cache.Get(ctx, key); err == nil {
		var cards []*entities.Card
		if err := json.Unmarshal(cached, &cards); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, cardListCacheName)
			return cards, nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached card list")
	}
	observability.RecordCacheMiss(ctx, a.metrics, cardListCacheName)

	cards, err := a.adapter.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cards); err == nil {
		if err := a.cache.Set(ctx, key, data, a.ttlSeconds); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Failed to cache card list")
		}
	}
	return cards, nil
}

// ListByOwners resolves each owner through ListByOwner so cached lists are reused
func (a *CachedCardAdapter) ListByOwners(ctx context.Context, ownerIDs []string) (map[string][]*entities.Card, error) {
	result := make(map[string][]*entities.Card, len(ownerIDs))
	var missing []string

	for _, id := range ownerIDs {
		cached, err := a.cache.Get(ctx, providers.CardListCacheKey(id))
		if err != nil {
			missing = append(missing, id)
			continue
		}
		var cards []*entities.Card
		if err := json.Unmarshal(cached, &cards); err != nil {
			missing = append(missing, id)
			continue
		}
		observability.RecordCacheHit(ctx, a.metrics, cardListCacheName)
		result[id] = cards
	}

	if len(missing) == 0 {
		return result, nil
	}

	loaded, err := a.adapter.ListByOwners(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, id := range missing {
		observability.RecordCacheMiss(ctx, a.metrics, cardListCacheName)
		cards := loaded[id]
		if cards == nil {
			cards = []*entities.Card{}
		}
		result[id] = cards
		if data, err := json.Marshal(cards); err == nil {
			_ = a.cache.Set(ctx, providers.CardListCacheKey(id), data, a.ttlSeconds)
		}
	}
	return result, nil
}

// UpdateLocations writes through and drops the owner's cached list
func (a *CachedCardAdapter) UpdateLocations(ctx context.Context, ownerID, id string, locations []geo.Coordinate) error {
	if err := a.adapter.UpdateLocations(ctx, ownerID, id, locations); err != nil {
		return err
	}
	a.invalidate(ctx, ownerID)
	return nil
}

// Delete removes a card and drops the owner's cached list
func (a *CachedCardAdapter) Delete(ctx context.Context, ownerID, id string) error {
	if err := a.adapter.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	a.invalidate(ctx, ownerID)
	return nil
}
