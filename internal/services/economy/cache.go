package economy

import (
	"context"
	"log"
	"time"
)

// Cache is the subset of the redis cache service that balance reads and
// invalidations go through.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	GenerateKey(entityType, keyType string, value interface{}) string
}

// balanceCacheTTL bounds staleness from writers outside this package (games,
// loans, investments, market), which settle balances without invalidating.
const balanceCacheTTL = 10 * time.Second

func (s *Service) balanceKey(userID uint) string {
	return s.cache.GenerateKey("balance", "user", userID)
}

// cachedBalance returns a cached summary, or a miss on any cache error.
func (s *Service) cachedBalance(ctx context.Context, userID uint) (*BalanceSummary, bool) {
	if s.cache == nil {
		return nil, false
	}
	var sum BalanceSummary
	hit, err := s.cache.Get(ctx, s.balanceKey(userID), &sum)
	if err != nil || !hit {
		return nil, false
	}
	return &sum, true
}

func (s *Service) storeBalance(ctx context.Context, userID uint, sum *BalanceSummary) {
	if s.cache == nil || sum == nil {
		return
	}
	if err := s.cache.SetWithTTL(ctx, s.balanceKey(userID), sum, balanceCacheTTL); err != nil {
		log.Printf("economy: balance cache store failed for user %d: %v", userID, err)
	}
}

// invalidateBalances drops cached summaries after a settlement touched their
// accounts. Best effort: a miss here only shortens to the TTL bound.
func (s *Service) invalidateBalances(ctx context.Context, userIDs ...uint) {
	if s.cache == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, s.balanceKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Printf("economy: balance cache invalidation failed: %v", err)
	}
}
