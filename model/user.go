package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"` // student, instructor, admin
	TokenVersion int            `gorm:"default:0" json:"-"`                             // Increment to invalidate all user tokens

	// StripeCustomerID is created lazily on the first checkout attempt
	StripeCustomerID *string `gorm:"type:varchar(100);index" json:"stripe_customer_id,omitempty"`

	// Relationships
	Enrollments    []Enrollment        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"enrollments,omitempty"`
	AdminAuditLog  []AdminAuditLog     `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// HasCustomerReference reports whether the payment processor already knows this user
func (u *User) HasCustomerReference() bool {
	return u.StripeCustomerID != nil && *u.StripeCustomerID != ""
}
