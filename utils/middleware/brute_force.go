package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/coursehub-api/utils/cache"
	"github.com/sahilchouksey/coursehub-api/utils/response"
)

// BruteForceProtection locks out IPs after repeated failed logins.
// A nil cache disables it.
type BruteForceProtection struct {
	redisCache *cache.RedisCache
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(redisCache *cache.RedisCache) *BruteForceProtection {
	return &BruteForceProtection{
		redisCache: redisCache,
	}
}

func attemptKey(ip string) string { return fmt.Sprintf("brute_force:attempts:%s", ip) }
func lockKey(ip string) string    { return fmt.Sprintf("brute_force:lock:%s", ip) }

// CheckLockout middleware rejects locked IPs
func (b *BruteForceProtection) CheckLockout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if b == nil || b.redisCache == nil {
			return c.Next()
		}

		ctx := c.UserContext()
		key := lockKey(c.IP())

		locked, err := b.redisCache.Exists(ctx, key)
		if err != nil {
			// Don't block legitimate users due to cache issues
			log.Warnw("brute force check skipped", "error", err)
			return c.Next()
		}
		if !locked {
			return c.Next()
		}

		ttl, _ := b.redisCache.TTL(ctx, key)
		if ttl <= 0 {
			ttl = time.Minute
		}
		return response.TooManyRequests(c,
			fmt.Sprintf("Too many failed attempts. Try again in %d seconds", int(ttl.Seconds())), ttl)
	}
}

// RecordFailedAttempt records a failed login attempt and applies progressive lockouts
func (b *BruteForceProtection) RecordFailedAttempt(c *fiber.Ctx) {
	if b == nil || b.redisCache == nil {
		return
	}
	ctx := c.UserContext()
	ip := c.IP()

	attempts, err := b.redisCache.Increment(ctx, attemptKey(ip))
	if err != nil {
		return
	}
	if attempts == 1 {
		_ = b.redisCache.Expire(ctx, attemptKey(ip), 15*time.Minute)
	}

	var lockDuration time.Duration
	switch {
	case attempts >= 25:
		lockDuration = 24 * time.Hour
	case attempts >= 10:
		lockDuration = time.Hour
	case attempts >= 5:
		lockDuration = 2 * time.Minute
	default:
		return
	}

	if err := b.redisCache.Set(ctx, lockKey(ip), "locked", lockDuration); err != nil {
		log.Warnw("failed to apply login lockout", "ip", ip, "error", err)
	}
}

// RecordSuccessfulAttempt clears failed attempts on successful login
func (b *BruteForceProtection) RecordSuccessfulAttempt(c *fiber.Ctx) {
	if b == nil || b.redisCache == nil {
		return
	}
	ip := c.IP()
	_ = b.redisCache.Delete(c.UserContext(), attemptKey(ip), lockKey(ip))
}
