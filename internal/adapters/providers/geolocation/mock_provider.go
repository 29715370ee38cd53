package geolocation

import (
	"context"
	"fmt"
	"strings"

	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/pkg/geo"
)

var mockCities = map[string]geo.Coordinate{
	"berlin":      {Lat: 52.5200, Lng: 13.4050},
	"hamburg":     {Lat: 53.5511, Lng: 9.9937},
	"munich":      {Lat: 48.1351, Lng: 11.5820},
	"paris":       {Lat: 48.8566, Lng: 2.3522},
	"london":      {Lat: 51.5074, Lng: -0.1278},
	"new york":    {Lat: 40.7128, Lng: -74.0060},
	"los angeles": {Lat: 34.0522, Lng: -118.2437},
}

// MockProvider returns a fixed user position and geocodes addresses by
// matching well-known city names. A zero position means "unavailable".
type MockProvider struct {
	position geo.Coordinate
}

// NewMockProvider creates a mock provider reporting position for every user
func NewMockProvider(position geo.Coordinate) *MockProvider {
	return &MockProvider{position: position}
}

// Name identifies the provider
func (m *MockProvider) Name() string {
	return "mock"
}

// CurrentPosition returns the configured position
func (m *MockProvider) CurrentPosition(ctx context.Context, req providers.PositionRequest) (geo.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return geo.Coordinate{}, providers.ErrPositionTimeout
	}
	if !m.position.Valid() {
		return geo.Coordinate{}, providers.ErrPositionUnavailable
	}
	return m.position, nil
}

// Geocode resolves addresses mentioning a known city
func (m *MockProvider) Geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	lower := strings.ToLower(address)
	for city, coord := range mockCities {
		if strings.Contains(lower, city) {
			return coord, nil
		}
	}
	return geo.Coordinate{}, fmt.Errorf("no results for address")
}
