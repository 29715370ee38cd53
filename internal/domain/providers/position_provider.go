package providers

import (
	"context"
	"errors"

	"github.com/cardwallet/backend/pkg/geo"
)

// Position acquisition failures. All of them mean "no location available";
// callers fall back to random selection rather than surfacing them.
var (
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrPermissionDenied    = errors.New("position permission denied")
	ErrPositionTimeout     = errors.New("position request timed out")
)

// PositionRequest carries hints for locating a user
type PositionRequest struct {
	ClientIP string
}

// PositionProvider defines the interface for locating users and shops
type PositionProvider interface {
	// Name identifies the provider in logs and metrics
	Name() string

	// CurrentPosition estimates where the requesting user is
	CurrentPosition(ctx context.Context, req PositionRequest) (geo.Coordinate, error)

	// Geocode converts a shop address to coordinates
	Geocode(ctx context.Context, address string) (geo.Coordinate, error)
}
