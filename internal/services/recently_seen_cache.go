package services

import (
	"context"
	"time"

	"mcstatus/internal/models"

	"github.com/patrickmn/go-cache"
)

// DefaultRecentlySeenTTL is how long a recently-seen view is served from cache
const DefaultRecentlySeenTTL = 60 * time.Second

const recentlySeenKey = "recently_seen"

type recentlySeenEntry struct {
	records     []models.PresenceRecord
	refreshedAt time.Time
}

// RecentlySeenCache memoizes the recently-seen query in a single slot.
// A hit is served for as long as the entry is younger than the TTL, even if
// the online set passed in has changed since the refresh.
type RecentlySeenCache struct {
	tracker *PresenceTracker
	ttl     time.Duration
	now     func() time.Time
	cache   *cache.Cache
}

// NewRecentlySeenCache creates the view cache. Age is checked against the
// injected clock, so entries are stored without go-cache expiry.
func NewRecentlySeenCache(tracker *PresenceTracker, ttl time.Duration, now func() time.Time) *RecentlySeenCache {
	if ttl <= 0 {
		ttl = DefaultRecentlySeenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &RecentlySeenCache{
		tracker: tracker,
		ttl:     ttl,
		now:     now,
		cache:   cache.New(cache.NoExpiration, 0),
	}
}

// Get returns a copy of the cached view, refreshing it from the tracker when stale
func (c *RecentlySeenCache) Get(ctx context.Context, excluding []string, window time.Duration) []models.PresenceRecord {
	now := c.now()

	if value, found := c.cache.Get(recentlySeenKey); found {
		entry := value.(*recentlySeenEntry)
		if now.Sub(entry.refreshedAt) <= c.ttl {
			return copyRecords(entry.records)
		}
	}

	records := c.tracker.RecentlySeen(ctx, excluding, window)
	c.cache.Set(recentlySeenKey, &recentlySeenEntry{records: copyRecords(records), refreshedAt: now}, cache.NoExpiration)
	return records
}

// copyRecords keeps callers from sharing the cached backing array
func copyRecords(records []models.PresenceRecord) []models.PresenceRecord {
	out := make([]models.PresenceRecord, len(records))
	copy(out, records)
	return out
}

// Invalidate drops the cached view
func (c *RecentlySeenCache) Invalidate() {
	c.cache.Delete(recentlySeenKey)
}
