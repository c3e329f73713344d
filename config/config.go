package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	APP_URL      string
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// Stripe Configuration
	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string
	PAYMENT_TIMEOUT       time.Duration
	// Enrollment abuse guard
	ENROLL_RATE_LIMIT  int
	ENROLL_RATE_WINDOW time.Duration
	// Kafka Configuration
	KAFKA_BROKERS          []string
	KAFKA_ENROLLMENT_TOPIC string
	// Mail Configuration
	SENDGRID_API_KEY string
	MAIL_FROM        string
	// Misc
	CRON_ENABLED    bool
	ALLOWED_ORIGINS string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := getEnvOrDefault("DB_HOST", "localhost")
	dbPort := getEnvOrDefault("DB_PORT", "5432")

	rateLimit, err := strconv.Atoi(os.Getenv("ENROLL_RATE_LIMIT"))
	if err != nil || rateLimit <= 0 {
		rateLimit = 5
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		PORT:         port,
		APP_URL:      strings.TrimRight(getEnvOrDefault("APP_URL", "http://localhost:3000"), "/"),
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getEnvOrDefault("JWT_ISSUER", "coursehub-api"),
		// Redis
		REDIS_URL: getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		// Stripe
		STRIPE_SECRET_KEY:     os.Getenv("STRIPE_SECRET_KEY"),
		STRIPE_WEBHOOK_SECRET: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PAYMENT_TIMEOUT:       getDurationOrDefault("PAYMENT_TIMEOUT", 10*time.Second),
		// Abuse guard
		ENROLL_RATE_LIMIT:  rateLimit,
		ENROLL_RATE_WINDOW: getDurationOrDefault("ENROLL_RATE_WINDOW", time.Minute),
		// Kafka
		KAFKA_BROKERS:          brokers,
		KAFKA_ENROLLMENT_TOPIC: getEnvOrDefault("KAFKA_ENROLLMENT_TOPIC", "enrollment-events"),
		// Mail
		SENDGRID_API_KEY: os.Getenv("SENDGRID_API_KEY"),
		MAIL_FROM:        getEnvOrDefault("MAIL_FROM", "noreply@coursehub.app"),
		// Misc
		CRON_ENABLED:    os.Getenv("CRON_ENABLED") != "false", // Default to enabled
		ALLOWED_ORIGINS: getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
	}

	return envVariables, nil
}

// IsProduction reports whether the service runs with GO_ENV=production
func (e *EnviornmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getDurationOrDefault accepts Go duration strings ("30s", "2m")
func getDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
