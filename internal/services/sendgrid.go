package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer sends through the SendGrid v3 mail API
type SendGridMailer struct {
	apiKey  string
	baseURL string
}

// NewSendGridMailer creates a new SendGrid mailer
func NewSendGridMailer(apiKey string) *SendGridMailer {
	return &SendGridMailer{apiKey: apiKey}
}

// Send delivers msg. A non-2xx answer is an error carrying the provider's
// response body.
func (m *SendGridMailer) Send(ctx context.Context, msg *Message) error {
	// The client keeps the request body on itself, so one per send
	client := sendgrid.NewSendClient(m.apiKey)
	if m.baseURL != "" {
		client.BaseURL = m.baseURL
	}

	from := mail.NewEmail(msg.FromName, msg.FromEmail)
	to := mail.NewEmail("", msg.ToEmail)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.TextBody, msg.HTMLBody)

	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
	}
	return nil
}
