// Package cache holds the Redis-backed tally cache. The tally is the only
// read-heavy derived view in the system, so it is the only thing cached.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"ballotgate/internal/election/models"
	"ballotgate/internal/platform/redis"
)

const tallyKey = "ballotgate:tally"

// TallyCache stores the computed tally with a short TTL. Invalidation on every
// write keeps staleness bounded by the TTL only when invalidation is missed.
type TallyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTallyCache(client *redis.Client, ttl time.Duration) *TallyCache {
	return &TallyCache{client: client, ttl: ttl}
}

// Get returns the cached tally and whether it was present. Redis being down is
// reported as a miss; the caller recomputes from the store.
func (c *TallyCache) Get(ctx context.Context) ([]models.TallyEntry, bool) {
	raw, err := c.client.Client.Get(ctx, tallyKey).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []models.TallyEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// Set stores the tally for the configured TTL.
func (c *TallyCache) Set(ctx context.Context, entries []models.TallyEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal tally: %w", err)
	}
	if err := c.client.Client.Set(ctx, tallyKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache tally: %w", err)
	}
	return nil
}

// Invalidate drops the cached tally after any vote or candidate mutation.
func (c *TallyCache) Invalidate(ctx context.Context) error {
	if err := c.client.Client.Del(ctx, tallyKey).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("invalidate tally: %w", err)
	}
	return nil
}
