// Package mocks holds testify mocks of the domain ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/repositories"
	"github.com/cardwallet/backend/pkg/geo"
)

// CardRepository mocks repositories.CardRepository
type CardRepository struct {
	mock.Mock
}

var _ repositories.CardRepository = (*CardRepository)(nil)

func (m *CardRepository) Create(ctx context.Context, card *entities.Card) error {
	return m.Called(ctx, card).Error(0)
}

func (m *CardRepository) GetByID(ctx context.Context, ownerID, id string) (*entities.Card, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Card), args.Error(1)
}

func (m *CardRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Card, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Card), args.Error(1)
}

func (m *CardRepository) ListByOwners(ctx context.Context, ownerIDs []string) (map[string][]*entities.Card, error) {
	args := m.Called(ctx, ownerIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]*entities.Card), args.Error(1)
}

func (m *CardRepository) UpdateLocations(ctx context.Context, ownerID, id string, locations []geo.Coordinate) error {
	return m.Called(ctx, ownerID, id, locations).Error(0)
}

func (m *CardRepository) Delete(ctx context.Context, ownerID, id string) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

// CardSearchRepository mocks repositories.CardSearchRepository
type CardSearchRepository struct {
	mock.Mock
}

var _ repositories.CardSearchRepository = (*CardSearchRepository)(nil)

func (m *CardSearchRepository) Index(ctx context.Context, card *entities.Card) error {
	return m.Called(ctx, card).Error(0)
}

func (m *CardSearchRepository) Delete(ctx context.Context, ownerID, id string) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *CardSearchRepository) Search(ctx context.Context, ownerIDs []string, query string, limit int) ([]repositories.CardHit, error) {
	args := m.Called(ctx, ownerIDs, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repositories.CardHit), args.Error(1)
}

// UserRepository mocks repositories.UserRepository
type UserRepository struct {
	mock.Mock
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func (m *UserRepository) Create(ctx context.Context, user *entities.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *UserRepository) Update(ctx context.Context, user *entities.User) error {
	return m.Called(ctx, user).Error(0)
}

// ShareRepository mocks repositories.ShareRepository
type ShareRepository struct {
	mock.Mock
}

var _ repositories.ShareRepository = (*ShareRepository)(nil)

func (m *ShareRepository) Add(ctx context.Context, share *entities.Share) error {
	return m.Called(ctx, share).Error(0)
}

func (m *ShareRepository) Remove(ctx context.Context, ownerID, targetID string) error {
	return m.Called(ctx, ownerID, targetID).Error(0)
}

func (m *ShareRepository) Exists(ctx context.Context, ownerID, targetID string) (bool, error) {
	args := m.Called(ctx, ownerID, targetID)
	return args.Bool(0), args.Error(1)
}

func (m *ShareRepository) ListSharedWith(ctx context.Context, ownerID string) ([]*entities.Share, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Share), args.Error(1)
}

func (m *ShareRepository) ListSharingWithMe(ctx context.Context, userID string) ([]*entities.Share, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Share), args.Error(1)
}
