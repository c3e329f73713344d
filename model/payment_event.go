package model

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentEvent stores payment provider webhook deliveries so that repeated
// deliveries of the same provider event are processed once.
type PaymentEvent struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Provider        string         `gorm:"type:varchar(20);not null;uniqueIndex:idx_payment_events_provider_event,priority:1" json:"provider"`
	ProviderEventID string         `gorm:"type:varchar(191);not null;uniqueIndex:idx_payment_events_provider_event,priority:2" json:"provider_event_id"`
	EventType       string         `gorm:"type:varchar(100);not null;index" json:"event_type"`
	Payload         datatypes.JSON `json:"payload"`
	ProcessedAt     *time.Time     `gorm:"index" json:"processed_at,omitempty"`
	ProcessingError string         `gorm:"type:text" json:"processing_error,omitempty"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TableName specifies the table name for PaymentEvent
func (PaymentEvent) TableName() string {
	return "payment_events"
}
