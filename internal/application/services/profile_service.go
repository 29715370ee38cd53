package services

import (
	"context"
	"strings"
	"time"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/repositories"
	apperrors "github.com/cardwallet/backend/pkg/errors"
)

// Profile is a user with both directions of their sharing
type Profile struct {
	User          *entities.User    `json:"user"`
	SharedWith    []*entities.Share `json:"shared_with"`
	SharingWithMe []*entities.Share `json:"sharing_with_me"`
}

// ProfileService reads and edits user profiles
type ProfileService struct {
	users  repositories.UserRepository
	shares repositories.ShareRepository
}

// NewProfileService creates a new profile service
func NewProfileService(users repositories.UserRepository, shares repositories.ShareRepository) *ProfileService {
	return &ProfileService{users: users, shares: shares}
}

// GetProfile loads a user's profile
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sharedWith, err := s.shares.ListSharedWith(ctx, userID)
	if err != nil {
		return nil, err
	}
	sharingWithMe, err := s.shares.ListSharingWithMe(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User:          user,
		SharedWith:    sharedWith,
		SharingWithMe: sharingWithMe,
	}, nil
}

// UpdateUsername sets or clears the username
func (s *ProfileService) UpdateUsername(ctx context.Context, userID, username string) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if err := entities.ValidateUsername(username); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Username = username
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
