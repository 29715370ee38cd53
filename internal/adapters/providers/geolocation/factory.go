package geolocation

import (
	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/pkg/config"
	"github.com/cardwallet/backend/pkg/geo"
)

// NewPositionProvider builds the provider selected by GEOLOCATION_PROVIDER.
// Unknown names fall back to the mock provider.
func NewPositionProvider(cfg *config.GeolocationConfig, cache providers.CacheProvider) providers.PositionProvider {
	switch cfg.Provider {
	case "google":
		return NewGoogleProvider(cfg.APIKey, cache, NewIPLocator(cfg.IPLookupURL, nil))
	default:
		return NewMockProvider(geo.Coordinate{Lat: cfg.StaticLat, Lng: cfg.StaticLng})
	}
}
