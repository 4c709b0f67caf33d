package embedding

import (
	"context"
	"sync"
)

// Store persists job vectors keyed by job hash.
type Store interface {
	Upsert(ctx context.Context, vectors map[string][]float32) (int, error)
}

// Searcher is implemented by stores that can answer nearest-neighbour queries.
type Searcher interface {
	Similar(ctx context.Context, vector []float32, limit int) ([]Neighbor, error)
}

type Neighbor struct {
	JobHash  string  `json:"job_hash"`
	Distance float64 `json:"distance"`
}

// CountingStore only records how many vectors it was given.
type CountingStore struct {
	mu    sync.Mutex
	count int
}

func (c *CountingStore) Upsert(_ context.Context, vectors map[string][]float32) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count += len(vectors)
	return len(vectors), nil
}

func (c *CountingStore) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
