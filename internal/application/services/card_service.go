package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cardwallet/backend/internal/application/loaders"
	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/internal/domain/repositories"
	"github.com/cardwallet/backend/internal/infrastructure/observability"
	apperrors "github.com/cardwallet/backend/pkg/errors"
	"github.com/cardwallet/backend/pkg/geo"
)

const (
	maxStoreNameLength   = 100
	defaultSearchLimit   = 20
	maxSearchLimit       = 100
	sharedCardsCacheName = "shared_cards"
)

// AddCardInput is the payload for creating a card
type AddCardInput struct {
	StoreName     string           `json:"store_name"`
	Code          string           `json:"code"`
	BarcodeType   string           `json:"barcode_type"`
	ShopLocations []geo.Coordinate `json:"shop_locations"`
}

// CardServiceConfig tunes CardService
type CardServiceConfig struct {
	DuplicateThresholdMeters float64
	PositionTimeout          time.Duration
	SharedListTTL            time.Duration
}

// CardService handles business logic for wallet cards
type CardService struct {
	cards      repositories.CardRepository
	shares     repositories.ShareRepository
	searchRepo repositories.CardSearchRepository
	cache      providers.CacheProvider
	eventBus   providers.EventBus
	positions  providers.PositionProvider
	locator    positionLocator
	cfg        CardServiceConfig
	metrics    *observability.Metrics
}

// NewCardService creates a new card service. searchRepo, cache, eventBus
// and positions may be nil.
func NewCardService(
	cards repositories.CardRepository,
	shares repositories.ShareRepository,
	searchRepo repositories.CardSearchRepository,
	cache providers.CacheProvider,
	eventBus providers.EventBus,
	positions providers.PositionProvider,
	cfg CardServiceConfig,
	metrics *observability.Metrics,
) *CardService {
	if cfg.DuplicateThresholdMeters < 0 {
		cfg.DuplicateThresholdMeters = geo.DefaultDuplicateThresholdMeters
	}
	return &CardService{
		cards:      cards,
		shares:     shares,
		searchRepo: searchRepo,
		cache:      cache,
		eventBus:   eventBus,
		positions:  positions,
		locator:    newPositionLocator(positions, cfg.PositionTimeout, metrics),
		cfg:        cfg,
		metrics:    metrics,
	}
}

// AddCard validates and stores a new card for ownerID
func (s *CardService) AddCard(ctx context.Context, ownerID string, input AddCardInput) (*entities.Card, error) {
	storeName := strings.TrimSpace(input.StoreName)
	if storeName == "" {
		return nil, apperrors.NewValidationError("store name is required")
	}
	if len(storeName) > maxStoreNameLength {
		return nil, apperrors.NewValidationError("store name is too long")
	}

	barcodeType, err := entities.ParseBarcodeType(input.BarcodeType)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	code, err := barcodeType.NormalizeCode(input.Code)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	locations := []geo.Coordinate{}
	for _, loc := range input.ShopLocations {
		locations, _ = geo.AppendUnique(locations, loc, s.thresholdOption())
	}

	now := time.Now().UTC()
	card := &entities.Card{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		StoreName:     storeName,
		Code:          code,
		BarcodeType:   barcodeType,
		ShopLocations: locations,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.cards.Create(ctx, card); err != nil {
		return nil, err
	}

	s.index(ctx, card)
	s.publish(ctx, entities.NewCardEvent(ownerID, card.ID, entities.CardEventCreated))

	return card, nil
}

// GetCard returns a card visible to userID. Composite ids address cards
// shared with the user.
func (s *CardService) GetCard(ctx context.Context, userID, id string) (*entities.Card, error) {
	ownerID, cardID := entities.ParseCardID(id)
	if ownerID == "" || ownerID == userID {
		return s.cards.GetByID(ctx, userID, cardID)
	}

	share, err := s.findIncomingShare(ctx, ownerID, userID)
	if err != nil {
		return nil, err
	}

	card, err := s.cards.GetByID(ctx, ownerID, cardID)
	if err != nil {
		return nil, err
	}
	return card.AsSharedWith(share.OwnerEmail), nil
}

// ListOwnCards lists the cards userID owns
func (s *CardService) ListOwnCards(ctx context.Context, userID string) ([]*entities.Card, error) {
	return s.cards.ListByOwner(ctx, userID)
}

// ListSharedCards lists the cards other users share with userID
func (s *CardService) ListSharedCards(ctx context.Context, userID string) ([]*entities.Card, error) {
	if cached := s.cachedSharedCards(ctx, userID); cached != nil {
		return cached, nil
	}

	incoming, err := s.shares.ListSharingWithMe(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(incoming) == 0 {
		return []*entities.Card{}, nil
	}

	ownerIDs := make([]string, 0, len(incoming))
	for _, share := range incoming {
		ownerIDs = append(ownerIDs, share.OwnerID)
	}

	var grouped map[string][]*entities.Card
	if l := loaders.For(ctx); l != nil {
		grouped, err = l.LoadCardsByOwners(ctx, ownerIDs)
	} else {
		grouped, err = s.cards.ListByOwners(ctx, ownerIDs)
	}
	if err != nil {
		return nil, err
	}

	shared := []*entities.Card{}
	for _, share := range incoming {
		for _, card := range grouped[share.OwnerID] {
			shared = append(shared, card.AsSharedWith(share.OwnerEmail))
		}
	}

	s.cacheSharedCards(ctx, userID, shared)
	return shared, nil
}

// ListAllCards lists own cards followed by shared ones. A failure to load
// shared cards is logged and the own cards are still returned.
func (s *CardService) ListAllCards(ctx context.Context, userID string) ([]*entities.Card, error) {
	own, err := s.ListOwnCards(ctx, userID)
	if err != nil {
		return nil, err
	}

	shared, err := s.ListSharedCards(ctx, userID)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("user_id", userID).
			Msg("Failed to load shared cards")
		return own, nil
	}

	all := make([]*entities.Card, 0, len(own)+len(shared))
	all = append(all, own...)
	return append(all, shared...), nil
}

// ReplaceLocations overwrites a card's shop locations. Invalid and
// duplicate locations are dropped.
func (s *CardService) ReplaceLocations(ctx context.Context, userID, cardID string, locations []geo.Coordinate) (*entities.Card, error) {
	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}

	filtered := []geo.Coordinate{}
	for _, loc := range locations {
		filtered, _ = geo.AppendUnique(filtered, loc, s.thresholdOption())
	}
	return s.saveLocations(ctx, card, filtered)
}

// ClearLocations removes every shop location of a card
func (s *CardService) ClearLocations(ctx context.Context, userID, cardID string) (*entities.Card, error) {
	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	return s.saveLocations(ctx, card, []geo.Coordinate{})
}

// AddLocation records one more shop location. added is false when the
// location duplicates an existing one, in which case nothing is written.
func (s *CardService) AddLocation(ctx context.Context, userID, cardID string, loc geo.Coordinate) (card *entities.Card, added bool, err error) {
	if !loc.Valid() {
		return nil, false, apperrors.NewValidationError("location is not valid")
	}

	card, err = s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return nil, false, err
	}

	locations, added := geo.AppendUnique(card.ShopLocations, loc, s.thresholdOption())
	if !added {
		return card, false, nil
	}

	card, err = s.saveLocations(ctx, card, locations)
	if err != nil {
		return nil, false, err
	}
	return card, true, nil
}

// AddCurrentLocation records the user's current position as a shop location
func (s *CardService) AddCurrentLocation(ctx context.Context, userID, cardID string, req providers.PositionRequest) (*entities.Card, bool, error) {
	pos, err := s.locator.locate(ctx, req)
	if err != nil {
		observability.LoggerFromContext(ctx).Info().Err(err).Str("card_id", cardID).
			Msg("Could not determine current location")
		return nil, false, apperrors.NewValidationError("could not determine your current location")
	}
	return s.AddLocation(ctx, userID, cardID, pos)
}

// AddLocationByAddress geocodes address and records it as a shop location
func (s *CardService) AddLocationByAddress(ctx context.Context, userID, cardID, address string) (*entities.Card, bool, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, false, apperrors.NewValidationError("address is required")
	}
	if s.positions == nil {
		return nil, false, apperrors.NewValidationError("address lookup is not available")
	}

	pos, err := s.positions.Geocode(ctx, address)
	if err != nil {
		observability.LoggerFromContext(ctx).Info().Err(err).Str("address", address).
			Msg("Geocoding failed")
		return nil, false, apperrors.NewValidationError("could not find that address")
	}
	return s.AddLocation(ctx, userID, cardID, pos)
}

// DeleteCard removes a card the user owns
func (s *CardService) DeleteCard(ctx context.Context, userID, cardID string) error {
	if _, err := s.ownedCard(ctx, userID, cardID); err != nil {
		return err
	}

	if err := s.cards.Delete(ctx, userID, cardID); err != nil {
		return err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Delete(ctx, userID, cardID); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("card_id", cardID).
				Msg("Failed to delete card from index")
		}
	}
	s.publish(ctx, entities.NewCardEvent(userID, cardID, entities.CardEventDeleted))
	return nil
}

// SearchCards finds visible cards whose store name matches query.
// The search index is used when configured; otherwise, or when the index
// fails, cards are matched by case-insensitive substring.
func (s *CardService) SearchCards(ctx context.Context, userID, query string, limit int) ([]*entities.Card, error) {
	query = strings.TrimSpace(query)
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	all, err := s.ListAllCards(ctx, userID)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return truncate(all, limit), nil
	}

	if s.searchRepo != nil {
		cards, err := s.searchIndex(ctx, userID, all, query, limit)
		if err == nil {
			return cards, nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Card search index failed, matching in memory")
	}

	return truncate(matchStoreName(all, query), limit), nil
}

func (s *CardService) searchIndex(ctx context.Context, userID string, visible []*entities.Card, query string, limit int) ([]*entities.Card, error) {
	ownerSet := map[string]bool{userID: true}
	owners := []string{userID}
	byKey := make(map[string]*entities.Card, len(visible))
	for _, c := range visible {
		if !ownerSet[c.OwnerID] {
			ownerSet[c.OwnerID] = true
			owners = append(owners, c.OwnerID)
		}
		_, rawID := entities.ParseCardID(c.ID)
		byKey[c.OwnerID+"/"+rawID] = c
	}

	hits, err := s.searchRepo.Search(ctx, owners, query, limit)
	if err != nil {
		return nil, err
	}

	cards := make([]*entities.Card, 0, len(hits))
	for _, hit := range hits {
		if c, ok := byKey[hit.OwnerID+"/"+hit.CardID]; ok {
			cards = append(cards, c)
		}
	}
	return cards, nil
}

func matchStoreName(cards []*entities.Card, query string) []*entities.Card {
	q := strings.ToLower(query)
	matched := []*entities.Card{}
	for _, c := range cards {
		if strings.Contains(strings.ToLower(c.StoreName), q) {
			matched = append(matched, c)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return strings.HasPrefix(strings.ToLower(matched[i].StoreName), q) &&
			!strings.HasPrefix(strings.ToLower(matched[j].StoreName), q)
	})
	return matched
}

func truncate(cards []*entities.Card, limit int) []*entities.Card {
	if len(cards) > limit {
		return cards[:limit]
	}
	return cards
}

// ownedCard loads a card and rejects ids that address someone else's card
func (s *CardService) ownedCard(ctx context.Context, userID, cardID string) (*entities.Card, error) {
	ownerID, rawID := entities.ParseCardID(cardID)
	if ownerID != "" && ownerID != userID {
		return nil, apperrors.NewForbiddenError("shared cards cannot be modified")
	}
	return s.cards.GetByID(ctx, userID, rawID)
}

func (s *CardService) saveLocations(ctx context.Context, card *entities.Card, locations []geo.Coordinate) (*entities.Card, error) {
	if err := s.cards.UpdateLocations(ctx, card.OwnerID, card.ID, locations); err != nil {
		return nil, err
	}

	updated := *card
	updated.ShopLocations = locations
	updated.UpdatedAt = time.Now().UTC()

	s.index(ctx, &updated)
	s.publish(ctx, entities.NewCardEvent(card.OwnerID, card.ID, entities.CardEventLocationsUpdated))
	return &updated, nil
}

func (s *CardService) findIncomingShare(ctx context.Context, ownerID, userID string) (*entities.Share, error) {
	incoming, err := s.shares.ListSharingWithMe(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, share := range incoming {
		if share.OwnerID == ownerID {
			return share, nil
		}
	}
	return nil, apperrors.NewNotFoundError("card not found")
}

func (s *CardService) thresholdOption() geo.DuplicateOption {
	return geo.WithThresholdMeters(s.cfg.DuplicateThresholdMeters)
}

func (s *CardService) index(ctx context.Context, card *entities.Card) {
	if s.searchRepo == nil {
		return
	}
	if err := s.searchRepo.Index(ctx, card); err != nil {
		// Search is eventually consistent; cmd/indexer repairs drift.
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("card_id", card.ID).
			Msg("Failed to index card")
	}
}

func (s *CardService) publish(ctx context.Context, event *entities.CardEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, providers.EventChannelCardUpdates, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("event_type", string(event.EventType)).
			Msg("Failed to publish card event")
	}
}

func (s *CardService) cachedSharedCards(ctx context.Context, userID string) []*entities.Card {
	if s.cache == nil || s.cfg.SharedListTTL <= 0 {
		return nil
	}

	data, err := s.cache.Get(ctx, providers.SharedCardListCacheKey(userID))
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Shared card cache read failed")
		}
		observability.RecordCacheMiss(ctx, s.metrics, sharedCardsCacheName)
		return nil
	}

	var cards []*entities.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		observability.RecordCacheMiss(ctx, s.metrics, sharedCardsCacheName)
		return nil
	}
	if cards == nil {
		cards = []*entities.Card{}
	}
	observability.RecordCacheHit(ctx, s.metrics, sharedCardsCacheName)
	return cards
}

func (s *CardService) cacheSharedCards(ctx context.Context, userID string, cards []*entities.Card) {
	if s.cache == nil || s.cfg.SharedListTTL <= 0 {
		return
	}
	data, err := json.Marshal(cards)
	if err != nil {
		return
	}
	ttl := int(s.cfg.SharedListTTL.Seconds())
	if err := s.cache.Set(ctx, providers.SharedCardListCacheKey(userID), data, ttl); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Shared card cache write failed")
	}
}
