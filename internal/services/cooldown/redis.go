package cooldown

import (
	"context"
	"fmt"
	"time"

	"casino/internal/repositories/cache"
)

// RedisGuard is the durable drop-in for MemoryGuard: the same check-and-arm
// contract on a redis SET NX with TTL, surviving process restarts.
type RedisGuard struct {
	cache *cache.CacheService
}

func NewRedisGuard(cache *cache.CacheService) *RedisGuard {
	return &RedisGuard{cache: cache}
}

func (g *RedisGuard) Check(ctx context.Context, key Key, d time.Duration) (time.Duration, error) {
	if d <= 0 {
		return 0, nil
	}

	k := fmt.Sprintf("cooldown:%s:%s:%s", key.TenantID, key.UserID, key.Activity)
	armed, err := g.cache.SetNX(ctx, k, 1, d)
	if err != nil {
		return 0, fmt.Errorf("cooldown check: %w", err)
	}
	if armed {
		return 0, nil
	}
	remaining, err := g.cache.TTL(ctx, k)
	if err != nil {
		return 0, fmt.Errorf("cooldown ttl: %w", err)
	}
	if remaining <= 0 {
		// Expired between SETNX and PTTL; treat as armed on the next call.
		remaining = time.Millisecond
	}
	return remaining, nil
}
