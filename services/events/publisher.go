// Package events publishes enrollment lifecycle events for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Event types
const (
	TypeCheckoutCreated = "enrollment.checkout_created"
	TypeActivated       = "enrollment.activated"
	TypeCancelled       = "enrollment.cancelled"
)

// EnrollmentEvent is the message body written to the enrollment topic
type EnrollmentEvent struct {
	Type              string    `json:"type"`
	EnrollmentID      uint      `json:"enrollment_id"`
	UserID            uint      `json:"user_id"`
	CourseID          uint      `json:"course_id"`
	Status            string    `json:"status"`
	Amount            string    `json:"amount"`
	Currency          string    `json:"currency"`
	CheckoutSessionID string    `json:"checkout_session_id,omitempty"`
	Source            string    `json:"source,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// Publisher sends enrollment events
type Publisher interface {
	Publish(ctx context.Context, event EnrollmentEvent) error
	Close() error
}

// NoopPublisher drops events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, event EnrollmentEvent) error {
	log.Debugw("event publishing disabled, dropping event", "type", event.Type, "enrollment_id", event.EnrollmentID)
	return nil
}

func (NoopPublisher) Close() error { return nil }
