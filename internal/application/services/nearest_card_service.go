package services

import (
	"context"
	"time"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/internal/infrastructure/observability"
	apperrors "github.com/cardwallet/backend/pkg/errors"
	"github.com/cardwallet/backend/pkg/geo"
)

// Selection strategies reported with a NearestResult
const (
	StrategyNearest        = "nearest"
	StrategyRandomFallback = "random_fallback"
)

const (
	defaultNearbyLimit = 10
	maxNearbyLimit     = 50
)

// PositionInput describes where the user is. A nil Coordinate asks the
// position provider instead.
type PositionInput struct {
	Coordinate *geo.Coordinate
	ClientIP   string
}

// NearestResult is the card to show the user first
type NearestResult struct {
	Card         *entities.Card  `json:"card"`
	Location     *geo.Coordinate `json:"location,omitempty"`
	DistanceKm   *float64        `json:"distance_km,omitempty"`
	Strategy     string          `json:"strategy"`
	UserPosition *geo.Coordinate `json:"user_position,omitempty"`
}

// NearbyShop is one card location ranked by distance
type NearbyShop struct {
	Card       *entities.Card `json:"card"`
	Location   geo.Coordinate `json:"location"`
	DistanceKm float64        `json:"distance_km"`
}

// cardLister is the slice of CardService the selector depends on
type cardLister interface {
	ListAllCards(ctx context.Context, userID string) ([]*entities.Card, error)
}

// NearestCardService picks the card whose shop is closest to the user
type NearestCardService struct {
	cards   cardLister
	locator positionLocator
	pick    geo.Picker
	metrics *observability.Metrics
}

// NewNearestCardService creates a new nearest card service
func NewNearestCardService(cards cardLister, positions providers.PositionProvider, timeout time.Duration, metrics *observability.Metrics) *NearestCardService {
	return &NearestCardService{
		cards:   cards,
		locator: newPositionLocator(positions, timeout, metrics),
		pick:    geo.DefaultPicker,
		metrics: metrics,
	}
}

// WithPicker replaces the random source used for the fallback
func (s *NearestCardService) WithPicker(pick geo.Picker) *NearestCardService {
	s.pick = pick
	return s
}

// SelectNearest returns the user's card with the closest shop location.
// When the position cannot be determined, or no card has a location, a
// random card is returned instead.
func (s *NearestCardService) SelectNearest(ctx context.Context, userID string, in PositionInput) (*NearestResult, error) {
	ctx, span := observability.StartSpan(ctx, "NearestCardService.SelectNearest")
	defer span.End()

	cards, err := s.cards.ListAllCards(ctx, userID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if len(cards) == 0 {
		observability.RecordSelection(ctx, s.metrics, observability.SelectionNone)
		return nil, apperrors.NewNotFoundError("no cards in wallet")
	}

	located := entities.LocatedCards(cards)
	pos, ok := s.resolvePosition(ctx, in)

	var sel geo.Selection[*entities.Card]
	if ok {
		sel, _ = geo.SelectNearestWith(s.pick, pos, located)
	} else {
		sel, _ = geo.SelectRandom(s.pick, located)
	}

	result := &NearestResult{Card: sel.Entity}
	if ok {
		result.UserPosition = &pos
	}
	if sel.Fallback {
		result.Strategy = StrategyRandomFallback
		observability.RecordSelection(ctx, s.metrics, observability.SelectionRandomFallback)
	} else {
		dist := sel.DistanceKm
		result.Strategy = StrategyNearest
		result.Location = sel.Coordinate
		result.DistanceKm = &dist
		observability.RecordSelection(ctx, s.metrics, observability.SelectionNearest)
	}
	return result, nil
}

// NearbyShops ranks every card location by distance from coord
func (s *NearestCardService) NearbyShops(ctx context.Context, userID string, coord geo.Coordinate, limit int) ([]NearbyShop, error) {
	if !coord.Valid() {
		return nil, apperrors.NewValidationError("a valid position is required")
	}
	if limit <= 0 {
		limit = defaultNearbyLimit
	}
	if limit > maxNearbyLimit {
		limit = maxNearbyLimit
	}

	cards, err := s.cards.ListAllCards(ctx, userID)
	if err != nil {
		return nil, err
	}

	ranked := geo.RankByDistance(coord, entities.LocatedCards(cards))
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	shops := make([]NearbyShop, 0, len(ranked))
	for _, c := range ranked {
		shops = append(shops, NearbyShop{Card: c.Entity, Location: c.Coordinate, DistanceKm: c.DistanceKm})
	}
	return shops, nil
}

func (s *NearestCardService) resolvePosition(ctx context.Context, in PositionInput) (geo.Coordinate, bool) {
	if in.Coordinate != nil && in.Coordinate.Valid() {
		return *in.Coordinate, true
	}

	pos, err := s.locator.locate(ctx, providers.PositionRequest{ClientIP: in.ClientIP})
	if err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).Msg("Position unavailable, using random card")
		return geo.Coordinate{}, false
	}
	return pos, true
}
