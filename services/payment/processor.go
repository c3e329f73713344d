// Package payment wraps the external payment processor used for course checkout.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrProcessor wraps every failure surfaced by the processor (network, API, timeout).
	ErrProcessor = errors.New("payment processor error")
	// ErrInvalidSignature is returned when a webhook payload fails verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrNotConfigured is returned by processors created without credentials.
	ErrNotConfigured = errors.New("payment processor not configured")
)

// Metadata keys attached to customers and checkout sessions
const (
	MetaUserID       = "userId"
	MetaCourseID     = "courseId"
	MetaEnrollmentID = "enrollmentId"
)

// Webhook event types the service reacts to
const (
	EventCheckoutCompleted      = "checkout.session.completed"
	EventCheckoutAsyncSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutExpired        = "checkout.session.expired"
)

// Checkout session states as reported by the processor
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"

	PaymentStatusPaid   = "paid"
	PaymentStatusUnpaid = "unpaid"
)

type CustomerParams struct {
	Email    string
	Name     string
	Metadata map[string]string
}

type Customer struct {
	ID string
}

type CheckoutParams struct {
	CustomerID     string
	PriceRef       string
	Quantity       int64
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string
	IdempotencyKey string
}

type CheckoutSession struct {
	ID            string
	URL           string
	Status        string
	PaymentStatus string
	Metadata      map[string]string
}

// IsPaid reports whether the session collected the payment
func (s *CheckoutSession) IsPaid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

// Event is a verified webhook delivery reduced to what enrollment cares about
type Event struct {
	ID      string
	Type    string
	Session *CheckoutSession
	Raw     []byte
}

// Processor is the payment processor collaborator
type Processor interface {
	Name() string
	CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
