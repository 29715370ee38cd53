package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cardwallet/backend/internal/application/services"
	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/pkg/geo"
)

type MockCardService struct {
	mock.Mock
}

func (m *MockCardService) AddCard(ctx context.Context, ownerID string, input services.AddCardInput) (*entities.Card, error) {
	args := m.Called(ctx, ownerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Card), args.Error(1)
}

func (m *MockCardService) GetCard(ctx context.Context, userID, id string) (*entities.Card, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Card), args.Error(1)
}

func (m *MockCardService) ListAllCards(ctx context.Context, userID string) ([]*entities.Card, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Card), args.Error(1)
}

func (m *MockCardService) ReplaceLocations(ctx context.Context, userID, cardID string, locations []geo.Coordinate) (*entities.Card, error) {
	args := m.Called(ctx, userID, cardID, locations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Card), args.Error(1)
}

func (m *MockCardService) ClearLocations(ctx context.Context, userID, cardID string) (*entities.Card, error) {
	args := m.Called(ctx, userID, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Card), args.Error(1)
}

func (m *MockCardService) AddLocation(ctx context.Context, userID, cardID string, loc geo.Coordinate) (*entities.Card, bool, error) {
	args := m.Called(ctx, userID, cardID, loc)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*entities.Card), args.Bool(1), args.Error(2)
}

func (m *MockCardService) AddCurrentLocation(ctx context.Context, userID, cardID string, req providers.PositionRequest) (*entities.Card, bool, error) {
	args := m.Called(ctx, userID, cardID, req)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*entities.Card), args.Bool(1), args.Error(2)
}

func (m *MockCardService) AddLocationByAddress(ctx context.Context, userID, cardID, address string) (*entities.Card, bool, error) {
	args := m.Called(ctx, userID, cardID, address)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*entities.Card), args.Bool(1), args.Error(2)
}

func (m *MockCardService) DeleteCard(ctx context.Context, userID, cardID string) error {
	return m.Called(ctx, userID, cardID).Error(0)
}

func (m *MockCardService) SearchCards(ctx context.Context, userID, query string, limit int) ([]*entities.Card, error) {
	args := m.Called(ctx, userID, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Card), args.Error(1)
}

type MockNearestService struct {
	mock.Mock
}

func (m *MockNearestService) SelectNearest(ctx context.Context, userID string, in services.PositionInput) (*services.NearestResult, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.NearestResult), args.Error(1)
}

func (m *MockNearestService) NearbyShops(ctx context.Context, userID string, coord geo.Coordinate, limit int) ([]services.NearbyShop, error) {
	args := m.Called(ctx, userID, coord, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.NearbyShop), args.Error(1)
}

type MockShareService struct {
	mock.Mock
}

func (m *MockShareService) AddShare(ctx context.Context, ownerID, email string) (*entities.Share, error) {
	args := m.Called(ctx, ownerID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Share), args.Error(1)
}

func (m *MockShareService) RemoveShare(ctx context.Context, ownerID, targetID string) error {
	return m.Called(ctx, ownerID, targetID).Error(0)
}

func (m *MockShareService) ListSharedWith(ctx context.Context, ownerID string) ([]*entities.Share, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Share), args.Error(1)
}

func (m *MockShareService) ListSharingWithMe(ctx context.Context, userID string) ([]*entities.Share, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Share), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, email, password string) (*entities.User, *entities.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*entities.User), args.Get(1).(*entities.Session), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*entities.User, *entities.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*entities.User), args.Get(1).(*entities.Session), args.Error(2)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type MockWalletEventService struct {
	mock.Mock
}

func (m *MockWalletEventService) Subscribe(ctx context.Context, userID string) (<-chan *entities.CardEvent, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.CardEvent), args.Error(1)
}
