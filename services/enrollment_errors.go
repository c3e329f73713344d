package services

import (
	"errors"
	"fmt"
	"time"
)

// EnrollmentErrorKind classifies why an enrollment request failed
type EnrollmentErrorKind string

const (
	ErrKindRateLimited          EnrollmentErrorKind = "rate_limited"
	ErrKindCourseNotFound       EnrollmentErrorKind = "course_not_found"
	ErrKindPricingNotConfigured EnrollmentErrorKind = "pricing_not_configured"
	ErrKindPaymentSystem        EnrollmentErrorKind = "payment_system_error"
	ErrKindUnknown              EnrollmentErrorKind = "unknown"
)

var errorMessages = map[EnrollmentErrorKind]string{
	ErrKindRateLimited:          "Too many enrollment attempts. Please wait a moment and try again.",
	ErrKindCourseNotFound:       "Course not found",
	ErrKindPricingNotConfigured: "This course is not available for purchase yet",
	ErrKindPaymentSystem:        "The payment system is temporarily unavailable. Please try again.",
	ErrKindUnknown:              "Something went wrong. Please try again.",
}

var (
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrInvalidTransition  = errors.New("invalid enrollment status transition")
)

// EnrollmentError is the only error type RequestEnrollment returns.
// Message is safe to show to the user; Err keeps the cause for logs.
type EnrollmentError struct {
	Kind    EnrollmentErrorKind
	Message string
	Err     error
	// RetryAfter is set for ErrKindRateLimited
	RetryAfter time.Duration
}

func (e *EnrollmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *EnrollmentError) Unwrap() error {
	return e.Err
}

func newEnrollmentError(kind EnrollmentErrorKind, err error) *EnrollmentError {
	return &EnrollmentError{
		Kind:    kind,
		Message: errorMessages[kind],
		Err:     err,
	}
}

// EnrollmentErrorKindOf returns the kind carried by err, or ErrKindUnknown
func EnrollmentErrorKindOf(err error) EnrollmentErrorKind {
	var enrollErr *EnrollmentError
	if errors.As(err, &enrollErr) {
		return enrollErr.Kind
	}
	return ErrKindUnknown
}
