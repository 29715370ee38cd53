package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/pkg/geo"
)

const (
	googleGeocodeURL       = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultGeocodeCacheTTL = 60 * 60 * 24 * 30
	defaultHTTPTimeout     = 8 * time.Second
)

// GoogleProvider geocodes shop addresses with the Google Geocoding API and
// locates users through an IP lookup service.
type GoogleProvider struct {
	apiKey     string
	httpClient *http.Client
	cache      providers.CacheProvider
	geocodeURL string
	locator    *IPLocator
}

// NewGoogleProvider creates a new Google-backed position provider.
func NewGoogleProvider(apiKey string, cache providers.CacheProvider, locator *IPLocator) providers.PositionProvider {
	return NewGoogleProviderWithOptions(apiKey, cache, locator, googleGeocodeURL, nil)
}

// NewGoogleProviderWithOptions allows overriding the geocode URL and HTTP client (used for tests).
func NewGoogleProviderWithOptions(apiKey string, cache providers.CacheProvider, locator *IPLocator, geocodeURL string, httpClient *http.Client) *GoogleProvider {
	if strings.TrimSpace(geocodeURL) == "" {
		geocodeURL = googleGeocodeURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GoogleProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		cache:      cache,
		geocodeURL: geocodeURL,
		locator:    locator,
	}
}

// Name identifies the provider
func (g *GoogleProvider) Name() string {
	return "google"
}

// CurrentPosition estimates the user's position from the client IP.
func (g *GoogleProvider) CurrentPosition(ctx context.Context, req providers.PositionRequest) (geo.Coordinate, error) {
	if g.locator == nil {
		return geo.Coordinate{}, providers.ErrPositionUnavailable
	}
	return g.locator.Locate(ctx, req.ClientIP)
}

// Geocode converts a shop address to coordinates.
func (g *GoogleProvider) Geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return geo.Coordinate{}, fmt.Errorf("address is required")
	}

	cacheKey := "geo:v1:geocode:" + hashKey(strings.ToLower(trimmed))
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var coord geo.Coordinate
			if err := json.Unmarshal(cached, &coord); err == nil && coord.Valid() {
				return coord, nil
			}
		}
	}

	resp, err := g.doGeocodeRequest(ctx, url.Values{"address": []string{trimmed}})
	if err != nil {
		return geo.Coordinate{}, err
	}
	if len(resp.Results) == 0 {
		return geo.Coordinate{}, fmt.Errorf("no results for address")
	}

	loc := resp.Results[0].Geometry.Location
	coord := geo.Coordinate{Lat: loc.Lat, Lng: loc.Lng}

	if g.cache != nil {
		if payload, err := json.Marshal(coord); err == nil {
			_ = g.cache.Set(ctx, cacheKey, payload, defaultGeocodeCacheTTL)
		}
	}
	return coord, nil
}

func (g *GoogleProvider) doGeocodeRequest(ctx context.Context, params url.Values) (*googleGeocodeResponse, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("google maps api key is required")
	}

	params.Set("key", g.apiKey)
	reqURL := fmt.Sprintf("%s?%s", g.geocodeURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geocode request returned status %d", resp.StatusCode)
	}

	var payload googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	if payload.Status == "ZERO_RESULTS" {
		return &payload, nil
	}
	if payload.Status != "OK" {
		if payload.ErrorMessage != "" {
			return nil, fmt.Errorf("geocode request failed: %s - %s", payload.Status, payload.ErrorMessage)
		}
		return nil, fmt.Errorf("geocode request failed: %s", payload.Status)
	}
	return &payload, nil
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	FormattedAddress string         `json:"formatted_address"`
	Geometry         googleGeometry `json:"geometry"`
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
