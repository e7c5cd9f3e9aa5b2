package services

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"certidesk/internal/config"
	"certidesk/internal/domain"
	"certidesk/internal/logging"
	"certidesk/internal/metrics"
	apperrors "certidesk/pkg/errors"
)

const (
	notSpecified   = "Not specified"
	previewLength  = 150
	timestampStyle = "Monday, January 2, 2006 15:04 MST"
)

// notifyRequired is the minimum a notification needs to be useful
type notifyRequired struct {
	ContactName  string `json:"contactName" validate:"required"`
	ContactEmail string `json:"contactEmail" validate:"required"`
}

// NotificationService emails the sales team about new leads
type NotificationService struct {
	cfg      config.NotifyConfig
	mailer   Mailer
	validate *validator.Validate
	now      func() time.Time
	log      *logrus.Entry
}

// NewNotificationService creates a new notification service. A nil mailer
// means notifications are not configured.
func NewNotificationService(cfg config.NotifyConfig, mailer Mailer, logger logrus.FieldLogger) *NotificationService {
	return &NotificationService{
		cfg:      cfg,
		mailer:   mailer,
		validate: newValidator(),
		now:      time.Now,
		log:      logging.Component(logger, "notify"),
	}
}

// Notify sends the new-lead email. Delivery failures come back as upstream
// errors whose cause carries the provider's text.
func (s *NotificationService) Notify(ctx context.Context, sub domain.ContactSubmission) error {
	sub = sub.Trimmed()

	if err := checkRequired(s.validate, notifyRequired{ContactName: sub.ContactName, ContactEmail: sub.ContactEmail}); err != nil {
		return apperrors.Validation(err)
	}
	if s.mailer == nil || !s.cfg.Ready() {
		return apperrors.Wrap(apperrors.ErrCodeConfiguration, "notification service is not configured",
			fmt.Errorf("provider %q is missing settings", s.cfg.Provider))
	}

	msg, err := s.compose(sub)
	if err != nil {
		return apperrors.Internal(err)
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		metrics.RecordNotification(false)
		s.log.WithError(err).WithField("provider", s.cfg.Provider).Error("Failed to send notification")
		return apperrors.Upstream("notification delivery failed", err)
	}

	metrics.RecordNotification(true)
	s.log.WithField("provider", s.cfg.Provider).Info("Notification sent")
	return nil
}

type notificationView struct {
	CompanyName    string
	CompanyRut     string
	EmployeeCount  string
	Industry       string
	ContactName    string
	ContactEmail   string
	ContactPhone   string
	CurrentSystem  string
	NeedsPreview   string
	AdditionalInfo string
	ReceivedAt     string
}

func (s *NotificationService) compose(sub domain.ContactSubmission) (*Message, error) {
	view := notificationView{
		CompanyName:    orNotSpecified(sub.CompanyName),
		CompanyRut:     orNotSpecified(sub.CompanyRut),
		EmployeeCount:  orNotSpecified(sub.EmployeeCount),
		Industry:       orNotSpecified(sub.Industry),
		ContactName:    sub.ContactName,
		ContactEmail:   sub.ContactEmail,
		ContactPhone:   orNotSpecified(sub.ContactPhone),
		CurrentSystem:  orNotSpecified(sub.CurrentSystem),
		NeedsPreview:   orNotSpecified(preview(sub.Needs, previewLength)),
		AdditionalInfo: orNotSpecified(sub.AdditionalInfo),
		ReceivedAt:     s.now().In(s.cfg.Location()).Format(timestampStyle),
	}

	var htmlBody bytes.Buffer
	if err := htmlNotification.Execute(&htmlBody, view); err != nil {
		return nil, fmt.Errorf("failed to render html notification: %w", err)
	}
	var textBody bytes.Buffer
	if err := textNotification.Execute(&textBody, view); err != nil {
		return nil, fmt.Errorf("failed to render text notification: %w", err)
	}

	return &Message{
		FromEmail: s.cfg.FromEmail,
		FromName:  s.cfg.FromName,
		ToEmail:   s.cfg.ToEmail,
		Subject:   subject(sub),
		HTMLBody:  htmlBody.String(),
		TextBody:  textBody.String(),
	}, nil
}

func subject(sub domain.ContactSubmission) string {
	who := sub.CompanyName
	if who == "" {
		who = sub.ContactName
	}
	return "New contact - " + singleLine(who)
}

// preview cuts s to max characters and marks the cut
func preview(s string, max int) string {
	cut := domain.Truncate(s, max)
	if cut != s {
		return cut + "..."
	}
	return s
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}

var htmlNotification = htmltemplate.Must(htmltemplate.New("notification.html").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>New contact</title>
</head>
<body style="margin: 0; padding: 0; background-color: #F4F6F9; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;">
    <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%" style="background-color: #F4F6F9;">
        <tr>
            <td style="padding: 32px 16px;">
                <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="600" style="margin: 0 auto; background-color: #FFFFFF; border-radius: 12px; overflow: hidden;">
                    <tr>
                        <td style="padding: 28px 32px; background-color: #0F3D6E; text-align: center;">
                            <h1 style="margin: 0; font-size: 26px; letter-spacing: 2px; color: #FFFFFF;">CERTIDESK</h1>
                            <p style="margin: 8px 0 0; font-size: 15px; color: #C9D8EA;">New contact request</p>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 32px;">
                            <h2 style="margin: 0 0 16px; font-size: 18px; color: #0F3D6E;">Company</h2>
                            <table role="presentation" cellspacing="0" cellpadding="6" border="0" width="100%" style="font-size: 14px; color: #334155;">
                                <tr><td width="40%"><strong>Name</strong></td><td>{{.CompanyName}}</td></tr>
                                <tr><td><strong>RUT</strong></td><td>{{.CompanyRut}}</td></tr>
                                <tr><td><strong>Employees</strong></td><td>{{.EmployeeCount}}</td></tr>
                                <tr><td><strong>Industry</strong></td><td>{{.Industry}}</td></tr>
                                <tr><td><strong>Current system</strong></td><td>{{.CurrentSystem}}</td></tr>
                            </table>

                            <h2 style="margin: 28px 0 16px; font-size: 18px; color: #0F3D6E;">Contact</h2>
                            <table role="presentation" cellspacing="0" cellpadding="6" border="0" width="100%" style="font-size: 14px; color: #334155;">
                                <tr><td width="40%"><strong>Name</strong></td><td>{{.ContactName}}</td></tr>
                                <tr><td><strong>Email</strong></td><td><a href="mailto:{{.ContactEmail}}" style="color: #0F3D6E;">{{.ContactEmail}}</a></td></tr>
                                <tr><td><strong>Phone</strong></td><td>{{.ContactPhone}}</td></tr>
                            </table>

                            <h2 style="margin: 28px 0 12px; font-size: 18px; color: #0F3D6E;">Needs</h2>
                            <p style="margin: 0 0 16px; font-size: 14px; line-height: 1.6; color: #334155;">{{.NeedsPreview}}</p>

                            <h2 style="margin: 28px 0 12px; font-size: 18px; color: #0F3D6E;">Additional information</h2>
                            <p style="margin: 0 0 24px; font-size: 14px; line-height: 1.6; color: #334155;">{{.AdditionalInfo}}</p>

                            <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%">
                                <tr>
                                    <td style="padding: 16px; background-color: #FFF7E6; border-left: 4px solid #F5A623; border-radius: 6px; font-size: 14px; color: #334155;">
                                        <strong>Next step:</strong> contact this lead within 24 hours.
                                    </td>
                                </tr>
                            </table>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 20px 32px; background-color: #F8FAFC; font-size: 12px; color: #94A3B8;">
                            Received {{.ReceivedAt}}. This is an automated message from the CERTIDESK contact form.
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`))

var textNotification = texttemplate.Must(texttemplate.New("notification.txt").Parse(`CERTIDESK - New contact request

Company
  Name:           {{.CompanyName}}
  RUT:            {{.CompanyRut}}
  Employees:      {{.EmployeeCount}}
  Industry:       {{.Industry}}
  Current system: {{.CurrentSystem}}

Contact
  Name:  {{.ContactName}}
  Email: {{.ContactEmail}}
  Phone: {{.ContactPhone}}

Needs
  {{.NeedsPreview}}

Additional information
  {{.AdditionalInfo}}

Next step: contact this lead within 24 hours.

Received {{.ReceivedAt}}.
`))
