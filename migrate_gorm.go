// migrate_gorm.go - Run this file to apply GORM migrations without starting the server
// Usage: go run migrate_gorm.go

//go:build ignore

package main

import (
	"log"

	"github.com/sahilchouksey/coursehub-api/config"
	"github.com/sahilchouksey/coursehub-api/database"
)

func main() {
	log.Println("=== GORM Migration ===")

	// Load environment variables
	if err := config.LoadENV(); err != nil {
		log.Fatal("Failed to load environment variables:", err)
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if err := store.HealthCheck(); err != nil {
		log.Fatal("Database health check failed:", err)
	}

	log.Println("Migrations completed, tables:")
	for _, table := range []string{
		"users",
		"jwt_token_blacklist",
		"courses",
		"enrollments",
		"payment_events",
		"cron_job_logs",
		"admin_audit_logs",
	} {
		log.Println("  -", table)
	}
}
