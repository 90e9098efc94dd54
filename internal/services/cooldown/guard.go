// Package cooldown rate-limits activities per (tenant, user, activity). The
// guard is a single check-and-arm call: a rejected check mutates nothing, an
// accepted one arms the expiry in the same step.
package cooldown

import (
	"context"
	"sync"
	"time"
)

// Key identifies one cooldown bucket.
type Key struct {
	TenantID string
	UserID   string
	Activity string
}

// Guard gates an activity. Check returns the remaining wait (> 0 means
// rejected, nothing mutated) or arms the key for d and returns 0.
type Guard interface {
	Check(ctx context.Context, key Key, d time.Duration) (time.Duration, error)
}

// MemoryGuard keeps expiries in a process-local map. State is lost on
// restart, which the economy accepts.
type MemoryGuard struct {
	mu      sync.Mutex
	expiry  map[Key]time.Time
	now     func() time.Time
	sweepAt time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{
		expiry: make(map[Key]time.Time),
		now:    time.Now,
	}
}

func (g *MemoryGuard) Check(_ context.Context, key Key, d time.Duration) (time.Duration, error) {
	if d <= 0 {
		return 0, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if until, ok := g.expiry[key]; ok && now.Before(until) {
		return until.Sub(now), nil
	}
	g.expiry[key] = now.Add(d)
	g.sweep(now)
	return 0, nil
}

// sweep drops expired keys at most once a minute to keep the map bounded.
func (g *MemoryGuard) sweep(now time.Time) {
	if now.Before(g.sweepAt) {
		return
	}
	g.sweepAt = now.Add(time.Minute)
	for k, until := range g.expiry {
		if !now.Before(until) {
			delete(g.expiry, k)
		}
	}
}
