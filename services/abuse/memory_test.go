package abuse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuard_DeniesAfterLimit(t *testing.T) {
	g := NewMemoryGuard(Config{Limit: 5, Window: time.Minute})
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d, err := g.Protect(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, d.IsDenied(), "attempt %d should pass", i)
		assert.Equal(t, 5-i, d.Remaining)
	}

	d, err := g.Protect(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, d.IsDenied())
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)
}

func TestMemoryGuard_FingerprintsAreIndependent(t *testing.T) {
	g := NewMemoryGuard(Config{Limit: 1, Window: time.Minute})
	ctx := context.Background()

	d, _ := g.Protect(ctx, "a")
	assert.False(t, d.IsDenied())
	d, _ = g.Protect(ctx, "a")
	assert.True(t, d.IsDenied())

	d, _ = g.Protect(ctx, "b")
	assert.False(t, d.IsDenied())
}

func TestMemoryGuard_WindowResets(t *testing.T) {
	g := NewMemoryGuard(Config{Limit: 1, Window: time.Minute})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	ctx := context.Background()

	d, _ := g.Protect(ctx, "u")
	assert.False(t, d.IsDenied())
	d, _ = g.Protect(ctx, "u")
	assert.True(t, d.IsDenied())

	now = now.Add(61 * time.Second)
	d, _ = g.Protect(ctx, "u")
	assert.False(t, d.IsDenied())

	now = now.Add(2 * time.Minute)
	g.Cleanup()
	assert.Empty(t, g.windows)
}

func TestMemoryGuard_SweepsExpiredWindows(t *testing.T) {
	g := NewMemoryGuard(Config{Limit: 5, Window: time.Minute})
	g.sweepEvery = 10
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 9; i++ {
		_, err := g.Protect(ctx, fmt.Sprintf("user-%d", i))
		require.NoError(t, err)
	}
	assert.Len(t, g.windows, 9)

	// The tenth call triggers a sweep; every earlier window has expired by then
	now = now.Add(2 * time.Minute)
	_, err := g.Protect(ctx, "fresh")
	require.NoError(t, err)
	assert.Len(t, g.windows, 1)
	assert.Contains(t, g.windows, g.cfg.key("fresh"))
}

func TestMemoryGuard_SweepKeepsLiveWindows(t *testing.T) {
	g := NewMemoryGuard(Config{Limit: 1, Window: time.Minute})
	g.sweepEvery = 3
	ctx := context.Background()

	d, _ := g.Protect(ctx, "a")
	assert.False(t, d.IsDenied())
	_, _ = g.Protect(ctx, "b")

	// Sweep runs here and must not reset the live counter for "a"
	d, _ = g.Protect(ctx, "a")
	assert.True(t, d.IsDenied())
	assert.Len(t, g.windows, 2)
}

func TestMemoryGuard_CancelledContext(t *testing.T) {
	g := NewMemoryGuard(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Protect(ctx, "u")
	assert.ErrorIs(t, err, context.Canceled)
}
