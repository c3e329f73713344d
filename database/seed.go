package database

import (
	"fmt"
	"log"
	"os"

	"github.com/sahilchouksey/coursehub-api/model"
	"github.com/sahilchouksey/coursehub-api/utils/auth"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedCourses(); err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() error {
	// Check if admin already exists
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	}

	// Get admin credentials from environment variables
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Name:         "System Administrator",
		Role:         model.RoleAdmin,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s\n", admin.Email)
	return nil
}

// SeedCourses creates demo catalog entries. Price references come from
// SEED_STRIPE_PRICE_* variables so that checkout works against a test account.
func (s *Seeder) SeedCourses() error {
	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Courses already exist, skipping...")
		return nil
	}

	courses := []model.Course{
		{
			Title:         "Go for Backend Engineers",
			Slug:          "go-for-backend-engineers",
			Description:   "Build HTTP services, workers and CLIs in Go",
			Price:         decimal.RequireFromString("49.99"),
			Currency:      "usd",
			IsPublished:   true,
			StripePriceID: priceRef("SEED_STRIPE_PRICE_GO"),
		},
		{
			Title:         "PostgreSQL in Practice",
			Slug:          "postgresql-in-practice",
			Description:   "Schema design, indexing and transactions",
			Price:         decimal.RequireFromString("39.00"),
			Currency:      "usd",
			IsPublished:   true,
			StripePriceID: priceRef("SEED_STRIPE_PRICE_PG"),
		},
		{
			Title:       "Distributed Systems Reading Group",
			Slug:        "distributed-systems-reading-group",
			Description: "Draft course without a processor price yet",
			Price:       decimal.RequireFromString("0"),
			Currency:    "usd",
			IsPublished: false,
		},
	}

	if err := s.db.Create(&courses).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d courses\n", len(courses))
	return nil
}

func priceRef(envKey string) *string {
	if v := os.Getenv(envKey); v != "" {
		return &v
	}
	return nil
}

// RunSeeds is a convenience function to run all seeds
func RunSeeds(db *gorm.DB) error {
	seeder := NewSeeder(db)
	return seeder.SeedAll()
}
