package abuse

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is how many Protect calls pass between sweeps of expired windows
const sweepEvery = 1024

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryGuard keeps fixed-window counters in process memory.
// Used when Redis is unavailable and in tests.
type MemoryGuard struct {
	mu      sync.Mutex
	cfg     Config
	windows map[string]*window
	now     func() time.Time

	calls      int
	sweepEvery int
}

// NewMemoryGuard creates an in-memory guard
func NewMemoryGuard(cfg Config) *MemoryGuard {
	return &MemoryGuard{
		cfg:     cfg.normalized(),
		windows:    make(map[string]*window),
		now:        time.Now,
		sweepEvery: sweepEvery,
	}
}

// Protect records one attempt for the fingerprint
func (g *MemoryGuard) Protect(ctx context.Context, fingerprint string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	key := g.cfg.key(fingerprint)

	g.calls++
	if g.calls >= g.sweepEvery {
		g.calls = 0
		g.sweep(now)
	}

	w, ok := g.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(g.cfg.Window)}
		g.windows[key] = w
	}
	w.count++

	return g.cfg.decide(w.count, w.resetAt.Sub(now)), nil
}

// Cleanup drops expired windows
func (g *MemoryGuard) Cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sweep(g.now())
}

func (g *MemoryGuard) sweep(now time.Time) {
	for k, w := range g.windows {
		if !now.Before(w.resetAt) {
			delete(g.windows, k)
		}
	}
}

// AllowAll never denies. Used when the guard is switched off.
type AllowAll struct{}

func (AllowAll) Protect(context.Context, string) (Decision, error) {
	return Decision{Remaining: -1}, nil
}
