package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridMailer_Prepare(t *testing.T) {
	m := NewSendGridMailer("key", "CourseHub", "noreply@coursehub.app")

	mail := m.prepare(EnrollmentConfirmation{
		ToEmail:     "ada@example.com",
		ToName:      "Ada",
		CourseTitle: "Go <Basics>",
		CourseURL:   "http://localhost:3000/courses/go-basics",
	})

	require.Len(t, mail.Personalizations, 1)
	p := mail.Personalizations[0]
	assert.Equal(t, "[CourseHub] You're enrolled in Go <Basics>", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "ada@example.com", p.To[0].Address)
	assert.Equal(t, "noreply@coursehub.app", mail.From.Address)

	require.Len(t, mail.Content, 2)
	assert.Equal(t, "text/plain", mail.Content[0].Type)
	assert.Contains(t, mail.Content[0].Value, "Hi Ada")
	assert.Contains(t, mail.Content[1].Value, "Go &lt;Basics&gt;")
}

func TestLogMailer(t *testing.T) {
	err := LogMailer{}.SendEnrollmentConfirmation(context.Background(), EnrollmentConfirmation{ToEmail: "a@b.c"})
	assert.NoError(t, err)
}
