package geolocation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardwallet/backend/internal/adapters/cache"
	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/pkg/geo"
)

func TestGoogleProvider_Geocode(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "Alexanderplatz 1, Berlin", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Alexanderplatz 1","geometry":{"location":{"lat":52.5219,"lng":13.4132}}}]}`))
	}))
	defer server.Close()

	mem, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)
	provider := NewGoogleProviderWithOptions("test-key", mem, nil, server.URL, server.Client())

	coord, err := provider.Geocode(context.Background(), " Alexanderplatz 1, Berlin ")
	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lat: 52.5219, Lng: 13.4132}, coord)

	// served from cache
	coord, err = provider.Geocode(context.Background(), "alexanderplatz 1, berlin")
	require.NoError(t, err)
	assert.Equal(t, 52.5219, coord.Lat)
	assert.Equal(t, 1, calls)
}

func TestGoogleProvider_GeocodeErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer server.Close()

	provider := NewGoogleProviderWithOptions("test-key", nil, nil, server.URL, server.Client())

	_, err := provider.Geocode(context.Background(), "nowhere")
	assert.Error(t, err)

	_, err = provider.Geocode(context.Background(), "  ")
	assert.Error(t, err)

	noKey := NewGoogleProviderWithOptions("", nil, nil, server.URL, server.Client())
	_, err = noKey.Geocode(context.Background(), "Berlin")
	assert.Error(t, err)
}

func TestGoogleProvider_CurrentPositionWithoutLocator(t *testing.T) {
	provider := NewGoogleProviderWithOptions("k", nil, nil, "", nil)

	_, err := provider.CurrentPosition(context.Background(), providers.PositionRequest{ClientIP: "8.8.8.8"})
	assert.ErrorIs(t, err, providers.ErrPositionUnavailable)
}

func TestIPLocator_Locate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/8.8.8.8/json/":
			_, _ = w.Write([]byte(`{"latitude":37.386,"longitude":-122.0838}`))
		case "/1.1.1.1/json/":
			_, _ = w.Write([]byte(`{"error":true,"reason":"RateLimited"}`))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer server.Close()

	locator := NewIPLocator(server.URL+"/", server.Client())
	ctx := context.Background()

	coord, err := locator.Locate(ctx, "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lat: 37.386, Lng: -122.0838}, coord)

	_, err = locator.Locate(ctx, "1.1.1.1")
	assert.ErrorIs(t, err, providers.ErrPositionUnavailable)

	_, err = locator.Locate(ctx, "9.9.9.9")
	assert.ErrorIs(t, err, providers.ErrPermissionDenied)

	for _, ip := range []string{"127.0.0.1", "10.0.0.4", "192.168.1.1", "not-an-ip", ""} {
		_, err = locator.Locate(ctx, ip)
		assert.ErrorIs(t, err, providers.ErrPositionUnavailable, ip)
	}
}

func TestIPLocator_OpensBreakerAfterRepeatedFailures(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	locator := NewIPLocator(server.URL, server.Client())
	ctx := context.Background()

	for i := 0; i < breakerFailureThreshold; i++ {
		_, err := locator.Locate(ctx, "8.8.8.8")
		assert.ErrorIs(t, err, providers.ErrPositionUnavailable)
	}
	require.Equal(t, breakerFailureThreshold, calls)

	_, err := locator.Locate(ctx, "8.8.8.8")
	assert.ErrorIs(t, err, providers.ErrPositionUnavailable)
	assert.Equal(t, breakerFailureThreshold, calls)
}

func TestMockProvider(t *testing.T) {
	ctx := context.Background()

	located := NewMockProvider(geo.Coordinate{Lat: 52.52, Lng: 13.405})
	coord, err := located.CurrentPosition(ctx, providers.PositionRequest{})
	require.NoError(t, err)
	assert.Equal(t, 52.52, coord.Lat)

	unavailable := NewMockProvider(geo.Coordinate{})
	_, err = unavailable.CurrentPosition(ctx, providers.PositionRequest{})
	assert.ErrorIs(t, err, providers.ErrPositionUnavailable)

	coord, err = located.Geocode(ctx, "Main Street 1, Paris")
	require.NoError(t, err)
	assert.Equal(t, 48.8566, coord.Lat)

	_, err = located.Geocode(ctx, "Atlantis")
	assert.Error(t, err)
}
