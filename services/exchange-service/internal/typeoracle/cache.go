package typeoracle

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cached decorates an oracle with a Redis lookup cache. The type system
// evolves rarely, so answers are cached with a TTL. Cache failures fall
// through to the underlying oracle: a broken cache makes checks slower,
// never wrong.
type Cached struct {
	next   Oracle
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(next Oracle, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Cached {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cached{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *Cached) IsSubtypeOf(ctx context.Context, sourceName, typeName, referenceTypeName string) (bool, error) {
	key := cacheKey(sourceName, typeName, referenceTypeName)

	cached, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		return cached == "1", nil
	}
	if err != redis.Nil {
		c.logger.Warn("type oracle cache read failed", "err", err)
	}

	result, err := c.next.IsSubtypeOf(ctx, sourceName, typeName, referenceTypeName)
	if err != nil {
		return false, err
	}

	value := "0"
	if result {
		value = "1"
	}
	if err := c.rdb.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Warn("type oracle cache write failed", "err", err)
	}
	return result, nil
}

func cacheKey(sourceName, typeName, referenceTypeName string) string {
	return strings.Join([]string{"typeoracle", sourceName, typeName, referenceTypeName}, ":")
}
