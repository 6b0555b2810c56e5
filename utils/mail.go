package utils

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends transactional mail through SendGrid. With an empty API key
// it only logs what it would have sent.
type Mailer struct {
	client *sendgrid.Client
	from   *mail.Email
	log    *slog.Logger
}

func NewMailer(apiKey, from string, log *slog.Logger) *Mailer {
	m := &Mailer{
		from: mail.NewEmail("Task Manager", from),
		log:  log,
	}
	if apiKey != "" {
		m.client = sendgrid.NewSendClient(apiKey)
	}
	return m
}

// SendWelcome greets a newly registered user.
func (m *Mailer) SendWelcome(ctx context.Context, email, firstName string) error {
	if m.client == nil {
		m.log.Debug("mail disabled, skipping welcome email", "user", email)
		return nil
	}

	to := mail.NewEmail(firstName, email)
	subject := "Welcome to Task Manager"
	plainTextContent := fmt.Sprintf("Hi %s, your account is ready. Sign in to start adding tasks.", firstName)
	htmlContent := fmt.Sprintf("<p>Hi %s,</p><p>your account is ready. Sign in to start adding tasks.</p>", html.EscapeString(firstName))

	message := mail.NewSingleEmail(m.from, subject, to, plainTextContent, htmlContent)
	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending welcome email: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sending welcome email: sendgrid status %d: %s", response.StatusCode, response.Body)
	}

	m.log.Info("welcome email sent", "user", email)
	return nil
}
