// Package cache keeps recently generated report previews in memory.
package cache

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/fasalvaidya/crop-health/internal/health"
)

// ReportCache stores report previews per farmer and scan. Entries expire
// after the configured TTL and the whole cache is flushed when thresholds
// change, since every cached preview was classified with the old ones.
type ReportCache struct {
	cache *gocache.Cache
}

// NewReportCache creates a cache with the given entry TTL and cleanup interval.
// A zero TTL disables caching: Get always misses and Set is a no-op.
func NewReportCache(ttl, cleanup time.Duration) *ReportCache {
	if ttl <= 0 {
		return &ReportCache{}
	}
	return &ReportCache{cache: gocache.New(ttl, cleanup)}
}

func reportKey(farmerID uuid.UUID, scanID int64) string {
	return fmt.Sprintf("preview:%s:%d", farmerID, scanID)
}

// Get returns the cached preview for the farmer's scan.
func (c *ReportCache) Get(farmerID uuid.UUID, scanID int64) (*health.Preview, bool) {
	if c == nil || c.cache == nil {
		return nil, false
	}
	cached, found := c.cache.Get(reportKey(farmerID, scanID))
	if !found {
		return nil, false
	}
	preview, ok := cached.(*health.Preview)
	return preview, ok
}

// Set stores a preview using the default expiration.
func (c *ReportCache) Set(farmerID uuid.UUID, scanID int64, preview *health.Preview) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Set(reportKey(farmerID, scanID), preview, gocache.DefaultExpiration)
}

// Flush drops every entry.
func (c *ReportCache) Flush() {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Flush()
}

// Len returns the number of entries, including expired ones not yet cleaned up.
func (c *ReportCache) Len() int {
	if c == nil || c.cache == nil {
		return 0
	}
	return c.cache.ItemCount()
}

// FlushOnReload registers the cache with store so every threshold reload
// empties it.
func (c *ReportCache) FlushOnReload(store *health.Store) {
	store.OnReload(func(*health.Config) { c.Flush() })
}
