package cache

import (
	"context"
	"path"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cardwallet/backend/internal/domain/providers"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryAdapter is an in-process CacheProvider used when Redis is disabled.
// It keeps at most size keys and evicts the least recently used.
type MemoryAdapter struct {
	mu    sync.Mutex
	cache *lru.Cache[string, memoryEntry]
	now   func() time.Time
}

// NewMemoryAdapter creates a bounded in-memory cache
func NewMemoryAdapter(size int) (*MemoryAdapter, error) {
	c, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryAdapter{cache: c, now: time.Now}, nil
}

var _ providers.CacheProvider = (*MemoryAdapter)(nil)

func (a *MemoryAdapter) lookup(key string) (memoryEntry, bool) {
	e, ok := a.cache.Get(key)
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !a.now().Before(e.expiresAt) {
		a.cache.Remove(key)
		return memoryEntry{}, false
	}
	return e, true
}

func (a *MemoryAdapter) expiry(seconds int) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	return a.now().Add(time.Duration(seconds) * time.Second)
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.lookup(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a value in cache with expiration
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cache.Add(key, memoryEntry{value: append([]byte(nil), value...), expiresAt: a.expiry(expirationSeconds)})
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cache.Remove(key)
	return nil
}

// Exists checks if a key exists in cache
func (a *MemoryAdapter) Exists(_ context.Context, key string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.lookup(key)
	return ok, nil
}

// Incr increments a counter stored as a decimal string
func (a *MemoryAdapter) Incr(_ context.Context, key string, expirationSeconds int) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.lookup(key)
	var n int64
	if ok {
		parsed, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	} else {
		e.expiresAt = a.expiry(expirationSeconds)
	}
	n++
	e.value = []byte(strconv.FormatInt(n, 10))
	a.cache.Add(key, e)
	return n, nil
}

// DeletePattern removes every key matching a glob pattern
func (a *MemoryAdapter) DeletePattern(_ context.Context, pattern string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, key := range a.cache.Keys() {
		if ok, _ := path.Match(pattern, key); ok {
			a.cache.Remove(key)
		}
	}
	return nil
}
