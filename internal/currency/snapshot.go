// internal/currency/snapshot.go
package currency

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/clock"
)

// snapshot is one fetched rate table. Snapshots are immutable once stored;
// a refetch stores a new snapshot under the same key.
type snapshot struct {
	fetchedAt time.Time
	rates     map[string]decimal.Decimal
}

// snapshotCache caches rate tables keyed by calendar day (or "latest").
// Concurrent readers and occasional concurrent writers are expected;
// last writer wins on a key.
type snapshotCache struct {
	mu      sync.RWMutex
	entries map[string]snapshot
	maxAge  time.Duration
	clock   clock.Clock
}

func newSnapshotCache(maxAge time.Duration, clk clock.Clock) *snapshotCache {
	return &snapshotCache{
		entries: make(map[string]snapshot),
		maxAge:  maxAge,
		clock:   clk,
	}
}

// get returns the rates for key if a fresh snapshot exists.
func (c *snapshotCache) get(key string) (map[string]decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Now().Sub(entry.fetchedAt) >= c.maxAge {
		return nil, false
	}
	return entry.rates, true
}

// getStale returns the most recent snapshot for key regardless of age,
// used as a fallback when a refetch fails.
func (c *snapshotCache) getStale(key string) (map[string]decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return entry.rates, true
}

func (c *snapshotCache) set(key string, rates map[string]decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = snapshot{
		fetchedAt: c.clock.Now(),
		rates:     rates,
	}
}
