// Package ratecache keeps short-lived JSON values in Redis: cached rate
// projections per base currency and one-shot admin notices.
package ratecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTTL is the lifetime of cached rate entries.
const DefaultTTL = time.Hour

const (
	keyPrefixRates      = "rates:"
	keyPrefixFormatted  = "rates_formatted:"
	keyPrefixGeneration = "rates_gen:"
)

// ErrStale is returned by SetIfGeneration when base was invalidated after
// the generation was read.
var ErrStale = errors.New("cache generation changed")

// RatesKey is the cache key of the raw snapshot for base.
func RatesKey(base string) string { return keyPrefixRates + base }

// FormattedKey is the cache key of the display projection for base.
func FormattedKey(base string) string { return keyPrefixFormatted + base }

func generationKey(base string) string { return keyPrefixGeneration + base }

// Cache stores JSON-encoded values with a fixed TTL. Redis failures are
// logged and treated as misses.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.SugaredLogger
}

// New creates a Cache. A non-positive ttl selects DefaultTTL.
func New(rdb *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl, log: logger}
}

// TTL returns the entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get decodes the value at key into dest and reports whether it was present.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnw("Cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.log.Warnw("Cache entry undecodable, dropping", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

// Generation returns the invalidation counter of base. Read it before
// loading the value to be passed to SetIfGeneration.
func (c *Cache) Generation(ctx context.Context, base string) int64 {
	if c == nil || c.rdb == nil {
		return 0
	}
	n, err := c.rdb.Get(ctx, generationKey(base)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warnw("Cache generation read failed", "base", base, "error", err)
	}
	return n
}

// SetIfGeneration stores v at key unless base has been invalidated since gen
// was read, in which case it returns ErrStale.
func (c *Cache) SetIfGeneration(ctx context.Context, base string, gen int64, key string, v any) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}

	gk := generationKey(base)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, gk)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStale), errors.Is(err, redis.TxFailedErr):
		c.log.Debugw("Cache refill skipped, entry invalidated meanwhile", "key", key)
		return ErrStale
	default:
		c.log.Warnw("Cache write failed", "key", key, "error", err)
		return err
	}
}

// Invalidate evicts both cache entries of base and bumps its generation so
// that refills started before the call are discarded.
func (c *Cache) Invalidate(ctx context.Context, base string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(base))
		pipe.Del(ctx, RatesKey(base), FormattedKey(base))
		return nil
	})
	if err != nil {
		c.log.Errorw("Cache invalidation failed", "base", base, "error", err)
	}
	return err
}
