// Package licensecache is the single shared store of the tenant's
// license data. Every service analyzer reads it; the underlying list is
// fetched at most once per run.
package licensecache

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/opsassess/m365-readiness/pkg/models"
)

// FetchFunc retrieves the raw license list from the licensing backend.
type FetchFunc func(ctx context.Context) ([]*models.License, error)

// Cache is the run-scoped license store. Safe for concurrent use: the
// four collectors and every service analyzer may call GetOrFetch and
// Merge while other analyzers run.
type Cache struct {
	fetch   FetchFunc
	fetches prometheus.Counter

	mu       sync.Mutex
	fetched  bool
	fetchErr error
	byID     map[string]*models.License
	order    []string
}

// New creates a cache around the given fetch function. The counter, when
// non-nil, is incremented once per underlying network fetch.
func New(fetch FetchFunc, fetches prometheus.Counter) *Cache {
	return &Cache{
		fetch:   fetch,
		fetches: fetches,
		byID:    make(map[string]*models.License),
	}
}

// GetOrFetch returns the tenant's licenses, fetching them on first call.
// Concurrent callers block on the same fill rather than racing their own
// fetches; after the fill, every caller for the rest of the run gets the
// cached result (or the memoized fetch error) without network traffic.
func (c *Cache) GetOrFetch(ctx context.Context) ([]*models.License, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.fetched {
		c.fetched = true
		if c.fetches != nil {
			c.fetches.Inc()
		}
		licenses, err := c.fetch(ctx)
		if err != nil {
			c.fetchErr = fmt.Errorf("license fetch failed: %w", err)
		} else {
			for _, lic := range licenses {
				c.insertLocked(lic)
			}
		}
	}

	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return c.snapshotLocked(), nil
}

// Merge tags an existing license with additional service categories, or
// inserts it when the SKU has not been seen yet. Category tags accumulate
// as a set; no duplicate entry is ever created for a SKU.
func (c *Cache) Merge(lic *models.License, categories ...models.Service) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.byID[lic.SkuID]
	if !ok {
		existing = c.insertLocked(lic)
	}

	for _, cat := range categories {
		if !existing.HasCategory(cat) {
			existing.ServiceCategories = append(existing.ServiceCategories, cat)
		}
	}
}

// ForService returns the licenses tagged with the given service category.
func (c *Cache) ForService(svc models.Service) []*models.License {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*models.License
	for _, id := range c.order {
		if c.byID[id].HasCategory(svc) {
			out = append(out, c.byID[id])
		}
	}
	return out
}

// Licenses returns all cached licenses in insertion order without
// triggering a fetch.
func (c *Cache) Licenses() []*models.License {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Cache) insertLocked(lic *models.License) *models.License {
	if existing, ok := c.byID[lic.SkuID]; ok {
		return existing
	}
	c.byID[lic.SkuID] = lic
	c.order = append(c.order, lic.SkuID)
	return lic
}

func (c *Cache) snapshotLocked() []*models.License {
	out := make([]*models.License, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}
