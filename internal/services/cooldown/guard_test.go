package cooldown

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuard_CheckAndArm(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewMemoryGuard()
	g.now = func() time.Time { return clock }

	key := Key{TenantID: "guild-1", UserID: "u1", Activity: "daily"}

	remaining, err := g.Check(context.Background(), key, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	// Second check inside the window is rejected with the remaining wait.
	clock = clock.Add(10 * time.Minute)
	remaining, err = g.Check(context.Background(), key, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Minute, remaining)

	// A rejected check must not extend the window.
	clock = clock.Add(25 * time.Minute)
	remaining, _ = g.Check(context.Background(), key, time.Hour)
	assert.Equal(t, 25*time.Minute, remaining)

	// After expiry the key re-arms.
	clock = clock.Add(26 * time.Minute)
	remaining, err = g.Check(context.Background(), key, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestMemoryGuard_KeysAreIndependent(t *testing.T) {
	g := NewMemoryGuard()
	base := Key{TenantID: "guild-1", UserID: "u1", Activity: "work"}

	remaining, err := g.Check(context.Background(), base, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	for _, other := range []Key{
		{TenantID: "guild-2", UserID: "u1", Activity: "work"},
		{TenantID: "guild-1", UserID: "u2", Activity: "work"},
		{TenantID: "guild-1", UserID: "u1", Activity: "daily"},
	} {
		remaining, err := g.Check(context.Background(), other, time.Hour)
		require.NoError(t, err)
		assert.Zero(t, remaining, "key %+v should not share the bucket", other)
	}
}

func TestMemoryGuard_ZeroDurationNeverBlocks(t *testing.T) {
	g := NewMemoryGuard()
	key := Key{TenantID: "guild-1", UserID: "u1", Activity: "coinflip"}

	for i := 0; i < 3; i++ {
		remaining, err := g.Check(context.Background(), key, 0)
		require.NoError(t, err)
		assert.Zero(t, remaining)
	}
}

func TestMemoryGuard_ConcurrentSingleWinner(t *testing.T) {
	g := NewMemoryGuard()
	key := Key{TenantID: "guild-1", UserID: "u1", Activity: "daily"}

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			remaining, err := g.Check(context.Background(), key, time.Hour)
			if err == nil && remaining == 0 {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestMemoryGuard_SweepDropsExpiredKeys(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewMemoryGuard()
	g.now = func() time.Time { return clock }

	for _, user := range []string{"u1", "u2", "u3"} {
		_, err := g.Check(context.Background(), Key{TenantID: "g", UserID: user, Activity: "work"}, time.Minute)
		require.NoError(t, err)
	}

	// Past every expiry and past the sweep interval.
	clock = clock.Add(2 * time.Minute)
	_, err := g.Check(context.Background(), Key{TenantID: "g", UserID: "u4", Activity: "work"}, time.Minute)
	require.NoError(t, err)

	g.mu.Lock()
	defer g.mu.Unlock()
	assert.Len(t, g.expiry, 1)
}
