package services

import (
	"context"
	"time"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/internal/domain/repositories"
	"github.com/cardwallet/backend/internal/infrastructure/observability"
	apperrors "github.com/cardwallet/backend/pkg/errors"
)

// ShareService manages who can see a user's cards
type ShareService struct {
	shares   repositories.ShareRepository
	users    repositories.UserRepository
	eventBus providers.EventBus
}

// NewShareService creates a new share service
func NewShareService(shares repositories.ShareRepository, users repositories.UserRepository, eventBus providers.EventBus) *ShareService {
	return &ShareService{
		shares:   shares,
		users:    users,
		eventBus: eventBus,
	}
}

// AddShare shares all of ownerID's cards with the user registered under email
func (s *ShareService) AddShare(ctx context.Context, ownerID, email string) (*entities.Share, error) {
	email = entities.NormalizeEmail(email)
	if err := entities.ValidateEmail(email); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.Email == email {
		return nil, apperrors.NewValidationError("you cannot share with yourself")
	}

	target, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError("user not found, they must sign in at least once")
		}
		return nil, err
	}

	exists, err := s.shares.Exists(ctx, ownerID, target.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflictError("already sharing with this user")
	}

	share := &entities.Share{
		OwnerID:     ownerID,
		OwnerEmail:  owner.Email,
		TargetID:    target.ID,
		TargetEmail: target.Email,
		AddedAt:     time.Now().UTC(),
	}
	if err := s.shares.Add(ctx, share); err != nil {
		return nil, err
	}

	s.publish(ctx, entities.NewShareEvent(ownerID, target.ID, entities.CardEventShareAdded))
	return share, nil
}

// RemoveShare stops sharing ownerID's cards with targetID
func (s *ShareService) RemoveShare(ctx context.Context, ownerID, targetID string) error {
	if targetID == "" {
		return apperrors.NewValidationError("user id is required")
	}
	if err := s.shares.Remove(ctx, ownerID, targetID); err != nil {
		return err
	}
	s.publish(ctx, entities.NewShareEvent(ownerID, targetID, entities.CardEventShareRemoved))
	return nil
}

// ListSharedWith lists the users ownerID shares with
func (s *ShareService) ListSharedWith(ctx context.Context, ownerID string) ([]*entities.Share, error) {
	return s.shares.ListSharedWith(ctx, ownerID)
}

// ListSharingWithMe lists the users sharing their cards with userID
func (s *ShareService) ListSharingWithMe(ctx context.Context, userID string) ([]*entities.Share, error) {
	return s.shares.ListSharingWithMe(ctx, userID)
}

func (s *ShareService) publish(ctx context.Context, event *entities.CardEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, providers.EventChannelCardUpdates, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("event_type", string(event.EventType)).
			Msg("Failed to publish share event")
	}
}
