// Package notify sends transactional emails about enrollments.
package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/gofiber/fiber/v2/log"
)

// EnrollmentConfirmation carries what the confirmation email needs
type EnrollmentConfirmation struct {
	ToEmail     string
	ToName      string
	CourseTitle string
	CourseURL   string
}

// Mailer delivers enrollment emails
type Mailer interface {
	SendEnrollmentConfirmation(ctx context.Context, msg EnrollmentConfirmation) error
}

// LogMailer logs emails instead of sending them. Used when no provider is configured.
type LogMailer struct{}

func (LogMailer) SendEnrollmentConfirmation(_ context.Context, msg EnrollmentConfirmation) error {
	log.Infow("mail provider not configured, skipping enrollment confirmation",
		"to", msg.ToEmail,
		"course", msg.CourseTitle,
	)
	return nil
}

func confirmationSubject(msg EnrollmentConfirmation) string {
	return fmt.Sprintf("You're enrolled in %s", msg.CourseTitle)
}

func confirmationText(msg EnrollmentConfirmation) string {
	name := msg.ToName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi %s,\n\nYour payment went through and you now have access to %s.\n\nStart learning: %s\n",
		name, msg.CourseTitle, msg.CourseURL)
}

func confirmationHTML(msg EnrollmentConfirmation) string {
	name := msg.ToName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>Your payment went through and you now have access to <strong>%s</strong>.</p>
<p><a href="%s">Start learning</a></p>`,
		html.EscapeString(name), html.EscapeString(msg.CourseTitle), html.EscapeString(msg.CourseURL))
}
