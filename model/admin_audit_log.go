package model

import (
	"time"

	"gorm.io/datatypes"
)

// AdminAuditLog is the trail of admin actions on enrollments and courses
type AdminAuditLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AdminID     uint           `gorm:"not null;index" json:"admin_id"`
	Action      string         `gorm:"type:varchar(100);not null;index" json:"action"` // e.g. "enrollment_cancel", "course_update"
	Resource    string         `gorm:"type:varchar(100)" json:"resource"`              // e.g. "enrollments", "courses"
	ResourceID  uint           `json:"resource_id"`
	NewValue    datatypes.JSON `json:"new_value,omitempty"`
	StatusCode  int            `json:"status_code"`
	IPAddress   string         `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent   string         `gorm:"type:text" json:"user_agent"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`

	// Relationships
	Admin *User `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"admin,omitempty"`
}

// TableName specifies the table name for AdminAuditLog
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
