package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var _ Cache = (*Memory)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process TTL cache. Expired entries are dropped lazily on read.
type Memory struct {
	mu         sync.RWMutex
	items      map[string]entry
	defaultTTL time.Duration
	closed     bool
	now        func() time.Time
}

func NewMemory(defaultTTL time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = DefaultOptions().DefaultTTL
	}
	return &Memory{
		items:      make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrClosed
	}
	e, ok := m.items[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.items[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.items[key] = entry{value: stored, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.items = nil
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// GetOrLoad returns the cached value for key or calls load once for all
// concurrent callers missing the same key, storing its result for ttl.
func GetOrLoad(ctx context.Context, c Cache, group *singleflight.Group, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, err := c.Get(ctx, key); err == nil {
		return v, nil
	}

	v, err, _ := group.Do(key, func() (any, error) {
		if v, err := c.Get(ctx, key); err == nil {
			return v, nil
		}
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		// a failed store only costs a reload on the next call
		_ = c.Set(ctx, key, loaded, ttl)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
