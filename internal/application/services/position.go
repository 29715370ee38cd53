package services

import (
	"context"
	"errors"
	"time"

	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/internal/infrastructure/observability"
	"github.com/cardwallet/backend/pkg/geo"
)

// defaultPositionTimeout bounds a position lookup when none is configured
const defaultPositionTimeout = 10 * time.Second

// positionLocator asks a provider for the user's position under a deadline
type positionLocator struct {
	provider providers.PositionProvider
	timeout  time.Duration
	metrics  *observability.Metrics
}

func newPositionLocator(provider providers.PositionProvider, timeout time.Duration, metrics *observability.Metrics) positionLocator {
	if timeout <= 0 {
		timeout = defaultPositionTimeout
	}
	return positionLocator{provider: provider, timeout: timeout, metrics: metrics}
}

// locate returns the user's position. Every failure is reported as one of
// the provider sentinel errors.
func (l positionLocator) locate(ctx context.Context, req providers.PositionRequest) (geo.Coordinate, error) {
	if l.provider == nil {
		return geo.Coordinate{}, providers.ErrPositionUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	pos, err := l.provider.CurrentPosition(ctx, req)
	if err == nil && !pos.Valid() {
		err = providers.ErrPositionUnavailable
	}
	observability.RecordPositionLatency(ctx, l.metrics, l.provider.Name(), err == nil, time.Since(start))

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return geo.Coordinate{}, providers.ErrPositionTimeout
		}
		if !errors.Is(err, providers.ErrPositionTimeout) && !errors.Is(err, providers.ErrPermissionDenied) {
			err = errors.Join(providers.ErrPositionUnavailable, err)
		}
		return geo.Coordinate{}, err
	}
	return pos, nil
}
