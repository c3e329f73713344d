package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnrollmentStatus represents the lifecycle state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentStatusPending   EnrollmentStatus = "pending"
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// IsValid checks if the status is one of the known states
func (s EnrollmentStatus) IsValid() bool {
	switch s {
	case EnrollmentStatusPending, EnrollmentStatusActive, EnrollmentStatusCancelled:
		return true
	}
	return false
}

// Enrollment links one user to one course. Rows are never deleted by the
// enrollment workflow; there is at most one row per (user_id, course_id).
type Enrollment struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	UserID            uint             `gorm:"not null;uniqueIndex:idx_enrollments_user_course,priority:1" json:"user_id"`
	CourseID          uint             `gorm:"not null;uniqueIndex:idx_enrollments_user_course,priority:2;index" json:"course_id"`
	Amount            decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency          string           `gorm:"type:varchar(3);default:'usd'" json:"currency"`
	Status            EnrollmentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CheckoutSessionID *string          `gorm:"type:varchar(255);index" json:"checkout_session_id,omitempty"`
	ActivatedAt       *time.Time       `json:"activated_at,omitempty"`
	CancelledAt       *time.Time       `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`

	// Relationships
	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Course *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for Enrollment
func (Enrollment) TableName() string {
	return "enrollments"
}
