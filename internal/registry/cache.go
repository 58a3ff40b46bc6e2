package registry

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/anyulbade/lei-cost-enricher/internal/model"
)

// Cache memoizes successful lookups for the lifetime of one run. Failures are
// never stored, so a later occurrence of the same LEI calls the registry again.
type Cache struct {
	fetcher Fetcher
	log     zerolog.Logger

	mu      sync.RWMutex
	records map[string]*model.RegistryRecord
	group   singleflight.Group
}

func NewCache(fetcher Fetcher, log zerolog.Logger) *Cache {
	return &Cache{
		fetcher: fetcher,
		log:     log.With().Str("component", "lei_cache").Logger(),
		records: make(map[string]*model.RegistryRecord),
	}
}

// Get returns false when the lookup failed. Concurrent callers for the same
// LEI share one in-flight request.
func (c *Cache) Get(ctx context.Context, lei string) (*model.RegistryRecord, bool) {
	if rec, ok := c.lookup(lei); ok {
		c.log.Info().Str("lei", lei).Msg("cache hit")
		return rec, true
	}

	v, err, _ := c.group.Do(lei, func() (interface{}, error) {
		if rec, ok := c.lookup(lei); ok {
			return rec, nil
		}
		rec, err := c.fetcher.Fetch(ctx, lei)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.records[lei] = rec
		c.mu.Unlock()
		return rec, nil
	})
	if err != nil {
		return nil, false
	}
	return v.(*model.RegistryRecord), true
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func (c *Cache) lookup(lei string) (*model.RegistryRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[lei]
	return rec, ok
}
