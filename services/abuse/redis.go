package abuse

import (
	"context"
	"fmt"

	"github.com/sahilchouksey/coursehub-api/utils/cache"
)

// RedisGuard counts attempts in Redis so that limits hold across instances
type RedisGuard struct {
	cache *cache.RedisCache
	cfg   Config
}

// NewRedisGuard creates a Redis backed guard
func NewRedisGuard(c *cache.RedisCache, cfg Config) *RedisGuard {
	return &RedisGuard{cache: c, cfg: cfg.normalized()}
}

// Protect increments the fingerprint counter, starting the window on the first hit
func (g *RedisGuard) Protect(ctx context.Context, fingerprint string) (Decision, error) {
	key := g.cfg.key(fingerprint)

	count, err := g.cache.Increment(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("increment %s: %w", key, err)
	}
	if count == 1 {
		if err := g.cache.Expire(ctx, key, g.cfg.Window); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", key, err)
		}
	}

	if count <= int64(g.cfg.Limit) {
		return g.cfg.decide(count, 0), nil
	}

	ttl, err := g.cache.TTL(ctx, key)
	if err != nil {
		ttl = g.cfg.Window
	}
	// A key without expiry would block forever; restart the window.
	if ttl < 0 {
		_ = g.cache.Expire(ctx, key, g.cfg.Window)
		ttl = g.cfg.Window
	}
	return g.cfg.decide(count, ttl), nil
}
