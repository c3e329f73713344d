package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Course represents a purchasable course in the catalog
type Course struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
	InstructorID *uint           `gorm:"index" json:"instructor_id,omitempty"`
	Title        string          `gorm:"not null" json:"title"`
	Slug         string          `gorm:"uniqueIndex;not null" json:"slug"`
	Description  string          `gorm:"type:text" json:"description"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	Currency     string          `gorm:"type:varchar(3);default:'usd'" json:"currency"`
	IsPublished  bool            `gorm:"default:false;index" json:"is_published"`

	// StripePriceID points at the processor's price object; checkout is impossible without it
	StripePriceID *string `gorm:"type:varchar(100)" json:"stripe_price_id,omitempty"`

	// Relationships
	Instructor  *User        `gorm:"foreignKey:InstructorID;constraint:OnDelete:SET NULL" json:"instructor,omitempty"`
	Enrollments []Enrollment `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// HasPriceReference reports whether the course can be sold through checkout
func (c *Course) HasPriceReference() bool {
	return c.StripePriceID != nil && *c.StripePriceID != ""
}
