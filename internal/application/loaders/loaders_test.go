package loaders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/pkg/geo"
)

type batchRepo struct {
	mu      sync.Mutex
	batches [][]string
	err     error
}

func (r *batchRepo) Create(ctx context.Context, card *entities.Card) error { return nil }
func (r *batchRepo) GetByID(ctx context.Context, ownerID, id string) (*entities.Card, error) {
	return nil, nil
}
func (r *batchRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Card, error) {
	return nil, nil
}
func (r *batchRepo) UpdateLocations(ctx context.Context, ownerID, id string, locations []geo.Coordinate) error {
	return nil
}
func (r *batchRepo) Delete(ctx context.Context, ownerID, id string) error { return nil }

func (r *batchRepo) ListByOwners(ctx context.Context, ownerIDs []string) (map[string][]*entities.Card, error) {
	r.mu.Lock()
	r.batches = append(r.batches, append([]string(nil), ownerIDs...))
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return map[string][]*entities.Card{
		"a": {{ID: "a1", OwnerID: "a"}},
	}, nil
}

func TestLoadCardsByOwners_SingleBatch(t *testing.T) {
	repo := &batchRepo{}
	l := NewLoaders(repo)

	grouped, err := l.LoadCardsByOwners(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Len(t, grouped["a"], 1)
	assert.NotNil(t, grouped["b"])
	assert.Empty(t, grouped["b"])
	assert.Len(t, repo.batches, 1)
}

func TestLoadCardsByOwners_PropagatesError(t *testing.T) {
	l := NewLoaders(&batchRepo{err: errors.New("db down")})

	_, err := l.LoadCardsByOwners(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestForAndWithLoaders(t *testing.T) {
	assert.Nil(t, For(context.Background()))

	l := NewLoaders(&batchRepo{})
	ctx := WithLoaders(context.Background(), l)
	assert.Same(t, l, For(ctx))
}
