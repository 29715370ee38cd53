package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardwallet/backend/internal/domain/providers"
)

func TestMemoryAdapter_Expiry(t *testing.T) {
	adapter, err := NewMemoryAdapter(16)
	require.NoError(t, err)
	now := time.Now()
	adapter.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "session:abc", []byte("u1"), 10))
	value, err := adapter.Get(ctx, "session:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("u1"), value)

	now = now.Add(10 * time.Second)
	_, err = adapter.Get(ctx, "session:abc")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestMemoryAdapter_IncrAndPattern(t *testing.T) {
	adapter, err := NewMemoryAdapter(16)
	require.NoError(t, err)
	ctx := context.Background()

	n, err := adapter.Incr(ctx, "login:x", 60)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = adapter.Incr(ctx, "login:x", 60)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, adapter.Set(ctx, "cards:owner:1", []byte("a"), 0))
	require.NoError(t, adapter.Set(ctx, "cards:owner:2", []byte("b"), 0))
	require.NoError(t, adapter.DeletePattern(ctx, "cards:owner:*"))

	exists, _ := adapter.Exists(ctx, "cards:owner:1")
	assert.False(t, exists)
	exists, _ = adapter.Exists(ctx, "login:x")
	assert.True(t, exists)
}

func TestMemoryAdapter_EvictsLeastRecentlyUsed(t *testing.T) {
	adapter, err := NewMemoryAdapter(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, adapter.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, adapter.Set(ctx, "c", []byte("3"), 0))

	_, err = adapter.Get(ctx, "a")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}
