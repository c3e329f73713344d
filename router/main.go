package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sahilchouksey/coursehub-api/config"
	"github.com/sahilchouksey/coursehub-api/database"
	"github.com/sahilchouksey/coursehub-api/handlers"
	admin_handlers "github.com/sahilchouksey/coursehub-api/handlers/admin"
	auth_handlers "github.com/sahilchouksey/coursehub-api/handlers/auth"
	course_handlers "github.com/sahilchouksey/coursehub-api/handlers/course"
	enrollment_handlers "github.com/sahilchouksey/coursehub-api/handlers/enrollment"
	webhook_handlers "github.com/sahilchouksey/coursehub-api/handlers/webhook"
	"github.com/sahilchouksey/coursehub-api/services"
	"github.com/sahilchouksey/coursehub-api/utils"
	"github.com/sahilchouksey/coursehub-api/utils/auth"
	"github.com/sahilchouksey/coursehub-api/utils/cache"
	"github.com/sahilchouksey/coursehub-api/utils/middleware"
	"gorm.io/gorm"
)

const webhookPrefix = "/api/v1/webhooks"

// Dependencies are the long-lived services the routes are bound to
type Dependencies struct {
	Env         *config.EnviornmentVariable
	DB          *gorm.DB
	Redis       *cache.RedisCache // nil when Redis is unavailable
	Enrollments *services.EnrollmentService
	Webhooks    *services.WebhookService
}

func SetupRoutes(app *fiber.App, store database.Storage, deps Dependencies) {
	db := deps.DB

	// Initialize JWT manager with config
	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        deps.Env.JWT_SECRET,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        deps.Env.JWT_ISSUER,
	})

	// Brute force protection is a no-op without Redis
	var bruteForceProtection *middleware.BruteForceProtection
	if deps.Redis != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(deps.Redis)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(db)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(deps.Enrollments)
	stripeHandler := webhook_handlers.NewStripeHandler(deps.Webhooks)

	// Processor webhooks are retried by the sender and must not be throttled
	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    deps.Env.ALLOWED_ORIGINS,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
		SkipRateLimit:     []string{webhookPrefix},
	})

	// Health check endpoint (public)
	app.Get("/ping", func(c *fiber.Ctx) error { return handlers.HandleCheckHealth(c, store, deps.Redis) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", bruteForceProtection.CheckLockout(), authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/logout-all", authMiddleware.Required(), authHandler.LogoutAll)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Catalog (public)
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/:id", courseHandler.GetCourse)

	// Enrollment
	courses.Post("/:id/enroll", authMiddleware.Required(), enrollmentHandler.Enroll)

	enrollments := api.Group("/enrollments", authMiddleware.Required())
	enrollments.Get("/", enrollmentHandler.ListMyEnrollments)
	enrollments.Get("/courses/:id", enrollmentHandler.GetMyEnrollment)

	// Payment processor webhooks (signature verified, no auth)
	webhooks := app.Group(webhookPrefix)
	webhooks.Post("/stripe", stripeHandler.Handle)

	// ==================== Admin ====================

	admin := api.Group("/admin", authMiddleware.RequireAdmin())

	// Catalog management
	admin.Get("/courses", courseHandler.ListAllCourses)
	admin.Post("/courses", middleware.AdminAuditLog(db, "course_create", "courses"), courseHandler.CreateCourse)
	admin.Put("/courses/:id", middleware.AdminAuditLog(db, "course_update", "courses"), courseHandler.UpdateCourse)
	admin.Delete("/courses/:id", middleware.AdminAuditLog(db, "course_delete", "courses"), courseHandler.DeleteCourse)

	// Enrollment management
	admin.Get("/enrollments", func(c *fiber.Ctx) error { return admin_handlers.ListEnrollments(c, deps.Enrollments) })
	admin.Post("/enrollments/reconcile", middleware.AdminAuditLog(db, "enrollment_reconcile", "enrollments"), func(c *fiber.Ctx) error {
		return admin_handlers.ReconcileEnrollments(c, deps.Enrollments)
	})
	admin.Post("/enrollments/:id/cancel", middleware.AdminAuditLog(db, "enrollment_cancel", "enrollments"), func(c *fiber.Ctx) error {
		return admin_handlers.CancelEnrollment(c, deps.Enrollments)
	})

	// User management
	admin.Get("/users/stats", utils.MakeHTTPHandleFunc(admin_handlers.GetUserStats, store))
	admin.Get("/users", utils.MakeHTTPHandleFunc(admin_handlers.ListUsers, store))
	admin.Get("/users/:id", utils.MakeHTTPHandleFunc(admin_handlers.GetUser, store))
	admin.Put("/users/:id", middleware.AdminAuditLog(db, "user_update", "users"), utils.MakeHTTPHandleFunc(admin_handlers.UpdateUser, store))
	admin.Post("/users/:id/reset-password", middleware.AdminAuditLog(db, "password_reset", "users"), utils.MakeHTTPHandleFunc(admin_handlers.ResetUserPassword, store))

	// Audit logs
	admin.Get("/audit", utils.MakeHTTPHandleFunc(admin_handlers.ListAuditLogs, store))
	admin.Get("/audit/:id", utils.MakeHTTPHandleFunc(admin_handlers.GetAuditLog, store))
}
