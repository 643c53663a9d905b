package services

import (
	"context"
	"time"

	"github.com/availboard/availbot/availbot/config"
	"github.com/availboard/availbot/availbot/database/models"
	"github.com/availboard/availbot/availbot/database/repositories"
	lru "github.com/hashicorp/golang-lru"
)

// ProfileCache fronts the profile repository with a small TTL'd LRU so the
// periodic refresh and sync passes do not refetch the same profiles every
// tick. It satisfies the board engine's ProfileSource.
type ProfileCache struct {
	repo  repositories.ProfileRepository
	cache *lru.Cache
	ttl   time.Duration
}

type profileCacheEntry struct {
	profile   *models.Profile
	expiresAt time.Time
}

func NewProfileCache(repo repositories.ProfileRepository) *ProfileCache {
	cache, _ := lru.New(config.ProfileCacheSize)
	return &ProfileCache{
		repo:  repo,
		cache: cache,
		ttl:   config.ProfileCacheExpiration,
	}
}

// GetProfile returns the user's profile or nil when none exists. Missing
// profiles are cached too so a broken owner reference cannot hammer the
// store every tick.
func (c *ProfileCache) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if v, ok := c.cache.Get(userID); ok {
		entry := v.(profileCacheEntry)
		if time.Now().Before(entry.expiresAt) {
			return entry.profile, nil
		}
		c.cache.Remove(userID)
	}

	profile, err := c.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.cache.Add(userID, profileCacheEntry{
		profile:   profile,
		expiresAt: time.Now().Add(c.ttl),
	})
	return profile, nil
}

// Invalidate drops the cached entry after a profile edit or delete.
func (c *ProfileCache) Invalidate(userID string) {
	c.cache.Remove(userID)
}
