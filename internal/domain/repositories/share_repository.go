package repositories

import (
	"context"

	"github.com/cardwallet/backend/internal/domain/entities"
)

// ShareRepository stores who may see whose cards
type ShareRepository interface {
	// Add records that share.OwnerID shares all cards with share.TargetID
	Add(ctx context.Context, share *entities.Share) error

	// Remove deletes the share in both directions' views
	Remove(ctx context.Context, ownerID, targetID string) error

	// Exists reports whether ownerID already shares with targetID
	Exists(ctx context.Context, ownerID, targetID string) (bool, error)

	// ListSharedWith lists the users ownerID shares with
	ListSharedWith(ctx context.Context, ownerID string) ([]*entities.Share, error)

	// ListSharingWithMe lists the users sharing their cards with userID
	ListSharingWithMe(ctx context.Context, userID string) ([]*entities.Share, error)
}
