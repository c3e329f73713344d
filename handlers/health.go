package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehub-api/database"
	"github.com/sahilchouksey/coursehub-api/utils/cache"
)

// HandleCheckHealth reports database and cache reachability. Redis is
// optional, so a missing cache is reported but never fails the check.
func HandleCheckHealth(c *fiber.Ctx, store database.Storage, redisCache *cache.RedisCache) error {
	checks := fiber.Map{"database": "ok", "redis": "disabled"}
	status := fiber.StatusOK

	if err := store.HealthCheck(); err != nil {
		checks["database"] = err.Error()
		status = fiber.StatusServiceUnavailable
	}

	if redisCache != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := redisCache.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
		} else {
			checks["redis"] = "ok"
		}
	}

	state := "ok"
	if status != fiber.StatusOK {
		state = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{"status": state, "checks": checks})
}
