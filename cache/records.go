package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"omni3d_back/logging"

	"github.com/redis/go-redis/v9"
)

const recordCacheTimeout = 300 * time.Millisecond

// RecordCache stores JSON snapshots of single records keyed by kind and id.
// A nil *RecordCache is valid and caches nothing, so callers never branch on it.
type RecordCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logging.Logger
}

func NewRecordCache(client *redis.Client, ttl time.Duration, log *logging.Logger) *RecordCache {
	if client == nil {
		return nil
	}
	return &RecordCache{client: client, ttl: ttl, log: log.With("component", "RecordCache")}
}

func (c *RecordCache) key(kind string, id uint64) string {
	return fmt.Sprintf("omni3d:%s:%d", kind, id)
}

func (c *RecordCache) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= recordCacheTimeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, recordCacheTimeout)
}

// Get decodes the cached record into dest and reports whether it was found.
// Redis failures count as misses.
func (c *RecordCache) Get(ctx context.Context, kind string, id uint64, dest any) bool {
	if c == nil {
		return false
	}
	ctx, cancel := c.context(ctx)
	defer cancel()

	data, err := c.client.Get(ctx, c.key(kind, id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache read failed", "kind", kind, "id", id, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.log.Warn("cache entry undecodable", "kind", kind, "id", id, "error", err)
		return false
	}
	return true
}

func (c *RecordCache) Set(ctx context.Context, kind string, id uint64, record any) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		c.log.Warn("cache encode failed", "kind", kind, "id", id, "error", err)
		return
	}
	ctx, cancel := c.context(ctx)
	defer cancel()

	if err := c.client.Set(ctx, c.key(kind, id), payload, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", "kind", kind, "id", id, "error", err)
	}
}

func (c *RecordCache) Invalidate(ctx context.Context, kind string, id uint64) {
	if c == nil {
		return
	}
	ctx, cancel := c.context(ctx)
	defer cancel()

	if err := c.client.Del(ctx, c.key(kind, id)).Err(); err != nil {
		c.log.Warn("cache invalidate failed", "kind", kind, "id", id, "error", err)
	}
}
