package service

import (
	"context"
	"strconv"
	"time"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// VersionCache specializes the generic CacheService into a cache of one
// Version's schedule snapshot. ScheduleBuilder stores a snapshot after each
// successful generation; the substitution and analytics services do not
// read from it.
type VersionCache struct {
	cache  *CacheService
	ttl    time.Duration
	prefix string
}

// NewVersionCache constructs a VersionCache over the shared CacheService.
func NewVersionCache(cache *CacheService, ttl time.Duration) *VersionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &VersionCache{cache: cache, ttl: ttl, prefix: "timetable:schedule:"}
}

func (c *VersionCache) key(versionID int64) string {
	return c.prefix + strconv.FormatInt(versionID, 10)
}

// Get returns the cached Schedule for a Version, or ok=false on a miss or
// when caching is disabled.
func (c *VersionCache) Get(ctx context.Context, versionID int64) (models.Schedule, bool) {
	var schedule models.Schedule
	hit, err := c.cache.Get(ctx, c.key(versionID), &schedule)
	if err != nil || !hit {
		return models.Schedule{}, false
	}
	return schedule, true
}

// Set stores a Version's Schedule snapshot with the configured TTL.
func (c *VersionCache) Set(ctx context.Context, schedule models.Schedule) {
	_ = c.cache.Set(ctx, c.key(schedule.VersionID), schedule, c.ttl)
}

// Invalidate removes the cached snapshot of one Version. Neither
// generation nor a schedule-configuration change calls it.
func (c *VersionCache) Invalidate(ctx context.Context, versionID int64) {
	_ = c.cache.Invalidate(ctx, c.key(versionID))
}
