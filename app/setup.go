package app

import (
	"fmt"
	"log"

	"github.com/sahilchouksey/coursehub-api/api"
	"github.com/sahilchouksey/coursehub-api/config"
	"github.com/sahilchouksey/coursehub-api/database"
	"github.com/sahilchouksey/coursehub-api/metrics"
	"github.com/sahilchouksey/coursehub-api/router"
	"github.com/sahilchouksey/coursehub-api/services"
	"github.com/sahilchouksey/coursehub-api/services/abuse"
	"github.com/sahilchouksey/coursehub-api/services/cron"
	"github.com/sahilchouksey/coursehub-api/services/events"
	"github.com/sahilchouksey/coursehub-api/services/notify"
	"github.com/sahilchouksey/coursehub-api/services/payment"
	"github.com/sahilchouksey/coursehub-api/utils/cache"
	"gorm.io/gorm"
)

const appName = "CourseHub"

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		log.Printf("Warning: .env not loaded: %v", err)
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}
	if getEnv.JWT_SECRET == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		print("If not running, run the following command:\n")
		print("  make docker-up   (for Docker setup)\n")
		print("  make db-up       (for local PostgreSQL)\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		print("Error running migrations:\n")
		return err
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return fmt.Errorf("failed to get GORM DB instance")
	}

	metrics.Register()

	// Redis backs the enrollment guard and login lockouts; both degrade without it
	redisCache, err := cache.NewRedisCache(getEnv.REDIS_URL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Falling back to in-process limits.", err)
		redisCache = nil
	}

	guardCfg := abuse.Config{
		Limit:  getEnv.ENROLL_RATE_LIMIT,
		Window: getEnv.ENROLL_RATE_WINDOW,
		Prefix: abuse.DefaultConfig().Prefix,
	}
	var guard abuse.Guard
	if redisCache != nil {
		guard = abuse.NewRedisGuard(redisCache, guardCfg)
	} else {
		guard = abuse.NewMemoryGuard(guardCfg)
	}

	processor := payment.NewStripeProcessor(payment.StripeConfig{
		SecretKey:     getEnv.STRIPE_SECRET_KEY,
		WebhookSecret: getEnv.STRIPE_WEBHOOK_SECRET,
	})
	if getEnv.STRIPE_SECRET_KEY == "" {
		log.Println("Warning: STRIPE_SECRET_KEY is not set, checkout will fail with payment_system_error")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if len(getEnv.KAFKA_BROKERS) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: getEnv.KAFKA_BROKERS,
			Topic:   getEnv.KAFKA_ENROLLMENT_TOPIC,
		})
		if err != nil {
			log.Printf("Warning: Kafka unavailable: %v. Enrollment events will only be logged.", err)
		} else {
			publisher = kafkaPublisher
		}
	}

	var mailer notify.Mailer = notify.LogMailer{}
	if getEnv.SENDGRID_API_KEY != "" {
		mailer = notify.NewSendGridMailer(getEnv.SENDGRID_API_KEY, appName, getEnv.MAIL_FROM)
	}

	enrollmentService := services.NewEnrollmentService(db, guard, processor, publisher, mailer, services.EnrollmentConfig{
		AppURL:         getEnv.APP_URL,
		PaymentTimeout: getEnv.PAYMENT_TIMEOUT,
	})
	webhookService := services.NewWebhookService(db, processor, enrollmentService)

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		cronManager = cron.NewCronManager(db, enrollmentService)
		if err := cronManager.Start(); err != nil {
			print("Warning: Failed to start cron jobs\n")
			print("Error: ", err.Error(), "\n")
			// Don't fail the app, just log the warning
			cronManager = nil
		}
	}

	// Defer closing DB, stopping cron jobs and flushing producers
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		if err := publisher.Close(); err != nil {
			log.Printf("Warning: failed to close event publisher: %v", err)
		}
		if redisCache != nil {
			redisCache.Close()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT), store)
	app := server.GetEngine()

	// Setup Routes
	router.SetupRoutes(app, store, router.Dependencies{
		Env:         getEnv,
		DB:          db,
		Redis:       redisCache,
		Enrollments: enrollmentService,
		Webhooks:    webhookService,
	})

	// Get the PORT & Start the Server
	return server.Run()
}
