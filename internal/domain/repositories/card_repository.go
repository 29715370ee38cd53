package repositories

import (
	"context"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/pkg/geo"
)

// CardRepository defines the interface for card data operations
type CardRepository interface {
	// Create stores a new card
	Create(ctx context.Context, card *entities.Card) error

	// GetByID retrieves a card owned by ownerID
	GetByID(ctx context.Context, ownerID, id string) (*entities.Card, error)

	// ListByOwner retrieves all cards of a user, newest first
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.Card, error)

	// ListByOwners retrieves the cards of several users keyed by owner id
	ListByOwners(ctx context.Context, ownerIDs []string) (map[string][]*entities.Card, error)

	// UpdateLocations replaces the shop locations of a card
	UpdateLocations(ctx context.Context, ownerID, id string, locations []geo.Coordinate) error

	// Delete removes a card
	Delete(ctx context.Context, ownerID, id string) error
}

// CardSearchRepository defines the interface for the card search index
type CardSearchRepository interface {
	// Index adds or replaces a card document
	Index(ctx context.Context, card *entities.Card) error

	// Delete removes a card document
	Delete(ctx context.Context, ownerID, id string) error

	// Search finds cards of the given owners whose store name matches query.
	// Hits are returned in relevance order.
	Search(ctx context.Context, ownerIDs []string, query string, limit int) ([]CardHit, error)
}

// CardHit is one search result
type CardHit struct {
	OwnerID string
	CardID  string
}

// CardCatalog walks every stored card, used by maintenance jobs
type CardCatalog interface {
	// ListPage returns up to limit cards with an id greater than afterID,
	// ordered by id
	ListPage(ctx context.Context, afterID string, limit int) ([]*entities.Card, error)
}
