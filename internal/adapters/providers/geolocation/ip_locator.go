package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/pkg/geo"
)

const (
	defaultIPLookupURL = "https://ipapi.co"

	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

// IPLocator resolves a public IP address to an approximate position using an
// ipapi.co compatible endpoint: GET {base}/{ip}/json/.
type IPLocator struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewIPLocator creates a locator; an empty baseURL uses ipapi.co
func NewIPLocator(baseURL string, httpClient *http.Client) *IPLocator {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultIPLookupURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &IPLocator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "ip-lookup",
			Timeout: breakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailureThreshold
			},
		}),
	}
}

type ipLookupResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Error     bool    `json:"error"`
	Reason    string  `json:"reason"`
}

// Locate returns the position of ip. Private and loopback addresses carry
// no location and yield ErrPositionUnavailable.
func (l *IPLocator) Locate(ctx context.Context, ip string) (geo.Coordinate, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil || addr.IsPrivate() || addr.IsLoopback() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() {
		return geo.Coordinate{}, providers.ErrPositionUnavailable
	}

	result, err := l.breaker.Execute(func() (interface{}, error) {
		return l.lookup(ctx, addr)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return geo.Coordinate{}, fmt.Errorf("%w: %v", providers.ErrPositionUnavailable, err)
		}
		return geo.Coordinate{}, err
	}
	return result.(geo.Coordinate), nil
}

func (l *IPLocator) lookup(ctx context.Context, addr netip.Addr) (geo.Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", l.baseURL, addr.String()), nil)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to build ip lookup request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return geo.Coordinate{}, providers.ErrPositionTimeout
		}
		return geo.Coordinate{}, fmt.Errorf("%w: %v", providers.ErrPositionUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return geo.Coordinate{}, providers.ErrPermissionDenied
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return geo.Coordinate{}, fmt.Errorf("%w: ip lookup returned status %d", providers.ErrPositionUnavailable, resp.StatusCode)
	}

	var payload ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: failed to decode ip lookup response: %v", providers.ErrPositionUnavailable, err)
	}
	if payload.Error {
		return geo.Coordinate{}, fmt.Errorf("%w: %s", providers.ErrPositionUnavailable, payload.Reason)
	}

	coord := geo.Coordinate{Lat: payload.Latitude, Lng: payload.Longitude}
	if !coord.Valid() {
		return geo.Coordinate{}, providers.ErrPositionUnavailable
	}
	return coord, nil
}
