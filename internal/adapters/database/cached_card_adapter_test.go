package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardwallet/backend/internal/adapters/cache"
	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/pkg/geo"
)

type countingCardRepo struct {
	cards     map[string][]*entities.Card
	listCalls int
	bulkCalls int
}

func (r *countingCardRepo) Create(ctx context.Context, card *entities.Card) error {
	r.cards[card.OwnerID] = append(r.cards[card.OwnerID], card)
	return nil
}

func (r *countingCardRepo) GetByID(ctx context.Context, ownerID, id string) (*entities.Card, error) {
	return nil, nil
}

func (r *countingCardRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Card, error) {
	r.listCalls++
	return r.cards[ownerID], nil
}

func (r *countingCardRepo) ListByOwners(ctx context.Context, ownerIDs []string) (map[string][]*entities.Card, error) {
	r.bulkCalls++
	out := map[string][]*entities.Card{}
	for _, id := range ownerIDs {
		out[id] = r.cards[id]
	}
	return out, nil
}

func (r *countingCardRepo) UpdateLocations(ctx context.Context, ownerID, id string, locations []geo.Coordinate) error {
	return nil
}

func (r *countingCardRepo) Delete(ctx context.Context, ownerID, id string) error {
	return nil
}

func newCachedRepo(t *testing.T) (*countingCardRepo, *CachedCardAdapter) {
	t.Helper()
	mem, err := cache.NewMemoryAdapter(64)
	require.NoError(t, err)
	inner := &countingCardRepo{cards: map[string][]*entities.Card{
		"u1": {{ID: "c1", OwnerID: "u1", StoreName: "Bakery"}},
	}}
	cached := NewCachedCardAdapter(inner, mem, time.Minute, nil).(*CachedCardAdapter)
	return inner, cached
}

func TestCachedCardAdapter_ListByOwnerUsesCache(t *testing.T) {
	inner, cached := newCachedRepo(t)
	ctx := context.Background()

	first, err := cached.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	second, err := cached.ListByOwner(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.listCalls)
	assert.Equal(t, first[0].StoreName, second[0].StoreName)
}

func TestCachedCardAdapter_WritesInvalidate(t *testing.T) {
	inner, cached := newCachedRepo(t)
	ctx := context.Background()

	_, err := cached.ListByOwner(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, cached.Create(ctx, &entities.Card{ID: "c2", OwnerID: "u1"}))
	cards, err := cached.ListByOwner(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.listCalls)
	assert.Len(t, cards, 2)

	require.NoError(t, cached.Delete(ctx, "u1", "c2"))
	_, err = cached.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, inner.listCalls)
}

func TestCachedCardAdapter_ListByOwnersLoadsOnlyMissing(t *testing.T) {
	inner, cached := newCachedRepo(t)
	ctx := context.Background()

	_, err := cached.ListByOwner(ctx, "u1")
	require.NoError(t, err)

	grouped, err := cached.ListByOwners(ctx, []string{"u1", "u2"})
	require.NoError(t, err)
	assert.Len(t, grouped["u1"], 1)
	assert.NotNil(t, grouped["u2"])
	assert.Equal(t, 1, inner.bulkCalls)

	_, err = cached.ListByOwners(ctx, []string{"u1", "u2"})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.bulkCalls)
}
