// Package abuse provides the pre-flight gate consulted before enrollment work starts.
package abuse

import (
	"context"
	"fmt"
	"time"
)

// Decision is the outcome of a guard check
type Decision struct {
	Denied     bool
	Remaining  int
	RetryAfter time.Duration
}

// IsDenied reports whether the caller must be turned away
func (d Decision) IsDenied() bool {
	return d.Denied
}

// Guard limits how often a fingerprint may pass within a window
type Guard interface {
	Protect(ctx context.Context, fingerprint string) (Decision, error)
}

// Config holds the fixed-window limits shared by every guard implementation
type Config struct {
	Limit  int
	Window time.Duration
	Prefix string
}

// DefaultConfig allows 5 attempts per minute
func DefaultConfig() Config {
	return Config{
		Limit:  5,
		Window: time.Minute,
		Prefix: "enroll:rl",
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Limit <= 0 {
		c.Limit = def.Limit
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.Prefix == "" {
		c.Prefix = def.Prefix
	}
	return c
}

func (c Config) key(fingerprint string) string {
	return fmt.Sprintf("%s:%s", c.Prefix, fingerprint)
}

// decide maps a hit count inside the current window to a Decision
func (c Config) decide(count int64, ttl time.Duration) Decision {
	remaining := c.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	if count > int64(c.Limit) {
		if ttl <= 0 {
			ttl = c.Window
		}
		return Decision{Denied: true, Remaining: 0, RetryAfter: ttl}
	}
	return Decision{Remaining: remaining}
}
