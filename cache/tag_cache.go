package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Playshare/model"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

const (
	tagVersionKey = "playshare:tags:version"
	tagTermPrefix = "playshare:tags:v%d:%s"
)

// TagCache caches typeahead results per search term.
// Every entry is keyed by the current version, so bumping the version
// invalidates all terms at once and stale keys expire on their own.
type TagCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTagCache creates a TagCache. A non-positive ttl disables caching.
func NewTagCache(client *redis.Client, ttl time.Duration) *TagCache {
	return &TagCache{client: client, ttl: ttl}
}

func (c *TagCache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, tagVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read tag cache version: %w", err)
	}
	return v, nil
}

func termKey(version int64, term string) string {
	return fmt.Sprintf(tagTermPrefix, version, model.TagKey(term))
}

// Get returns the cached tags for term and the cache version it looked at.
// ok is false on a miss; pass version to Set when filling it.
func (c *TagCache) Get(ctx context.Context, term string) (tags []model.Tag, version int64, ok bool, err error) {
	if c.ttl <= 0 {
		return nil, 0, false, nil
	}
	version, err = c.version(ctx)
	if err != nil {
		return nil, 0, false, err
	}

	data, err := c.client.Get(ctx, termKey(version, term)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, version, false, nil
	}
	if err != nil {
		return nil, version, false, fmt.Errorf("failed to read tag cache: %w", err)
	}

	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, version, false, fmt.Errorf("failed to decode tag cache: %w", err)
	}
	return tags, version, true, nil
}

// Set stores tags for term under the version returned by the missed Get.
// Results loaded before an Invalidate land under the old version and are
// never served.
func (c *TagCache) Set(ctx context.Context, version int64, term string, tags []model.Tag) error {
	if c.ttl <= 0 {
		return nil
	}
	key := termKey(version, term)
	if tags == nil {
		tags = []model.Tag{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tag cache: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write tag cache: %w", err)
	}
	return nil
}

// Invalidate drops every cached term.
func (c *TagCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, tagVersionKey).Err(); err != nil {
		return fmt.Errorf("failed to bump tag cache version: %w", err)
	}
	return nil
}
