package services

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"

	"certidesk/internal/config"
	"certidesk/internal/logging"
)

// Message is one outgoing notification email
type Message struct {
	FromEmail string
	FromName  string
	ToEmail   string
	Subject   string
	HTMLBody  string
	TextBody  string
}

// Mailer delivers a message through an email provider
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// NewMailer builds the mailer for the configured provider. It returns nil
// when the provider is missing settings.
func NewMailer(cfg config.NotifyConfig, logger logrus.FieldLogger) Mailer {
	if !cfg.Ready() {
		return nil
	}
	switch cfg.Provider {
	case config.ProviderSendGrid:
		return NewSendGridMailer(cfg.SendGridAPIKey)
	case config.ProviderSMTP:
		return NewSMTPMailer(cfg)
	case config.ProviderConsole:
		return NewConsoleMailer(logger)
	}
	return nil
}

// SMTPMailer sends multipart emails through an authenticated SMTP relay
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(cfg config.NotifyConfig) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		send:     smtp.SendMail,
	}
}

// Send sends an HTML email with plain text fallback
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := m.send(addr, auth, msg.FromEmail, []string{msg.ToEmail}, buildMIME(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

const mimeBoundary = "----=_CertideskPart_7f3a9c"

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// singleLine folds line breaks into spaces so a value cannot open new headers
func singleLine(s string) string {
	return lineBreaks.Replace(s)
}

// encodeHeader makes s safe for a header: one line, RFC 2047 encoded when
// it is not plain ASCII
func encodeHeader(s string) string {
	return mime.QEncoding.Encode("utf-8", singleLine(s))
}

func buildMIME(msg *Message) []byte {
	from := singleLine(msg.FromEmail)
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", encodeHeader(msg.FromName), from)
	}

	headers := fmt.Sprintf("From: %s\r\n", from) +
		fmt.Sprintf("To: %s\r\n", singleLine(msg.ToEmail)) +
		fmt.Sprintf("Subject: %s\r\n", encodeHeader(msg.Subject)) +
		"MIME-Version: 1.0\r\n" +
		fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", mimeBoundary) +
		"\r\n"

	body := headers +
		fmt.Sprintf("--%s\r\n", mimeBoundary) +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		msg.TextBody + "\r\n"

	if msg.HTMLBody != "" {
		body += fmt.Sprintf("--%s\r\n", mimeBoundary) +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			msg.HTMLBody + "\r\n"
	}

	body += fmt.Sprintf("--%s--\r\n", mimeBoundary)
	return []byte(body)
}

// ConsoleMailer logs messages instead of sending them, for development
type ConsoleMailer struct {
	log *logrus.Entry
}

// NewConsoleMailer creates a mailer that writes to the log
func NewConsoleMailer(logger logrus.FieldLogger) *ConsoleMailer {
	return &ConsoleMailer{log: logging.Component(logger, "mailer")}
}

// Send logs the envelope and the plain text body
func (m *ConsoleMailer) Send(ctx context.Context, msg *Message) error {
	m.log.WithFields(logrus.Fields{
		"to":      msg.ToEmail,
		"subject": msg.Subject,
	}).Info("[EMAIL] Would send notification")
	m.log.Debug(msg.TextBody)
	return nil
}
