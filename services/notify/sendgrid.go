package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

// SendGridMailer sends email through the SendGrid v3 API
type SendGridMailer struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

// NewSendGridMailer creates a mailer for the given API key and sender
func NewSendGridMailer(key, appName, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		key:        key,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (m *SendGridMailer) SendEnrollmentConfirmation(ctx context.Context, msg EnrollmentConfirmation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := sendgrid.GetRequest(m.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid returned status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func (m *SendGridMailer) prepare(msg EnrollmentConfirmation) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + confirmationSubject(msg)
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	mail := sgmail.NewV3Mail()
	mail.SetFrom(m.from)
	mail.AddPersonalizations(p)
	mail.AddContent(
		sgmail.NewContent("text/plain", confirmationText(msg)),
		sgmail.NewContent("text/html", confirmationHTML(msg)),
	)
	return mail
}
