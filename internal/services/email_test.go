package services

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certidesk/internal/config"
)

func testMessage() *Message {
	return &Message{
		FromEmail: "no-reply@certidesk.cl",
		FromName:  "CERTIDESK",
		ToEmail:   "sales@certidesk.cl",
		Subject:   "New contact - Acme SpA",
		HTMLBody:  "<p>hello</p>",
		TextBody:  "hello",
	}
}

func TestNewMailerByProvider(t *testing.T) {
	cfg := notifyConfig()

	cfg.Provider = config.ProviderConsole
	assert.IsType(t, &ConsoleMailer{}, NewMailer(cfg, quietLogger()))

	cfg.Provider = config.ProviderSendGrid
	assert.Nil(t, NewMailer(cfg, quietLogger()), "sendgrid without a key")
	cfg.SendGridAPIKey = "SG.key"
	assert.IsType(t, &SendGridMailer{}, NewMailer(cfg, quietLogger()))

	cfg.Provider = config.ProviderSMTP
	cfg.SMTPHost, cfg.SMTPUsername, cfg.SMTPPassword = "smtp.example.com", "user", "pass"
	assert.IsType(t, &SMTPMailer{}, NewMailer(cfg, quietLogger()))
}

func TestSMTPMailerBuildsMultipartMessage(t *testing.T) {
	cfg := notifyConfig()
	cfg.SMTPHost = "smtp.example.com"
	cfg.SMTPPort = 587
	mailer := NewSMTPMailer(cfg)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte
	mailer.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotBody = addr, from, to, msg
		return nil
	}

	require.NoError(t, mailer.Send(context.Background(), testMessage()))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "no-reply@certidesk.cl", gotFrom)
	assert.Equal(t, []string{"sales@certidesk.cl"}, gotTo)

	body := string(gotBody)
	assert.Contains(t, body, "From: CERTIDESK <no-reply@certidesk.cl>\r\n")
	assert.Contains(t, body, "Subject: New contact - Acme SpA\r\n")
	assert.Contains(t, body, "Content-Type: text/plain; charset=UTF-8")
	assert.Contains(t, body, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, body, "--"+mimeBoundary+"--")
}

// smtpNotifier wires a NotificationService to an SMTP mailer whose raw
// output is captured
func smtpNotifier(t *testing.T, fromName string) (*NotificationService, *[]byte) {
	t.Helper()
	cfg := notifyConfig()
	cfg.Provider = config.ProviderSMTP
	cfg.FromName = fromName
	cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword = "smtp.example.com", 587, "user", "pass"

	var raw []byte
	mailer := NewSMTPMailer(cfg)
	mailer.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		raw = msg
		return nil
	}
	return NewNotificationService(cfg, mailer, quietLogger()), &raw
}

func headerBlock(t *testing.T, raw []byte) string {
	t.Helper()
	head, _, found := strings.Cut(string(raw), "\r\n\r\n")
	require.True(t, found)
	return head
}

func TestSMTPHeadersIgnoreLineBreaksInSubmission(t *testing.T) {
	svc, raw := smtpNotifier(t, "CERTIDESK")

	sub := validSubmission()
	sub.CompanyName = "Acme\r\nBcc: victim@example.com\r\nX-Evil: 1"
	require.NoError(t, svc.Notify(context.Background(), sub))

	head := headerBlock(t, *raw)
	assert.Contains(t, head, "Subject: New contact - Acme Bcc: victim@example.com X-Evil: 1")
	for _, line := range strings.Split(head, "\r\n") {
		assert.False(t, strings.HasPrefix(line, "Bcc:"), line)
		assert.False(t, strings.HasPrefix(line, "X-Evil:"), line)
	}
	assert.Len(t, strings.Split(head, "\r\n"), 5)
}

func TestSMTPHeadersEncodeNonASCII(t *testing.T) {
	svc, raw := smtpNotifier(t, "Señales CERTIDESK")

	sub := validSubmission()
	sub.CompanyName = "Ñandú Ltda"
	require.NoError(t, svc.Notify(context.Background(), sub))

	head := headerBlock(t, *raw)
	for _, r := range head {
		require.LessOrEqual(t, r, rune(unicode.MaxASCII), "header must be 7-bit")
	}

	var subject, from string
	for _, line := range strings.Split(head, "\r\n") {
		if v, ok := strings.CutPrefix(line, "Subject: "); ok {
			subject = v
		}
		if v, ok := strings.CutPrefix(line, "From: "); ok {
			from = v
		}
	}

	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(subject)
	require.NoError(t, err)
	assert.Equal(t, "New contact - Ñandú Ltda", decoded)

	decoded, err = dec.DecodeHeader(from)
	require.NoError(t, err)
	assert.Equal(t, "Señales CERTIDESK <no-reply@certidesk.cl>", decoded)
}

func TestSMTPMailerWrapsSendErrors(t *testing.T) {
	mailer := NewSMTPMailer(notifyConfig())
	mailer.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("535 authentication failed")
	}

	err := mailer.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535 authentication failed")
}

func TestSendGridMailerSend(t *testing.T) {
	var payload struct {
		From struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"from"`
		Subject          string `json:"subject"`
		Personalizations []struct {
			To []struct {
				Email string `json:"email"`
			} `json:"to"`
		} `json:"personalizations"`
		Content []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"content"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	mailer := NewSendGridMailer("SG.key")
	mailer.baseURL = srv.URL + "/v3/mail/send"

	require.NoError(t, mailer.Send(context.Background(), testMessage()))

	assert.Equal(t, "no-reply@certidesk.cl", payload.From.Email)
	assert.Equal(t, "CERTIDESK", payload.From.Name)
	assert.Equal(t, "New contact - Acme SpA", payload.Subject)
	require.Len(t, payload.Personalizations, 1)
	require.Len(t, payload.Personalizations[0].To, 1)
	assert.Equal(t, "sales@certidesk.cl", payload.Personalizations[0].To[0].Email)
	require.Len(t, payload.Content, 2)
	assert.Equal(t, "text/plain", payload.Content[0].Type)
	assert.Equal(t, "text/html", payload.Content[1].Type)
}

func TestSendGridMailerReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":[{"message":"The from address does not match a verified Sender Identity"}]}`))
	}))
	defer srv.Close()

	mailer := NewSendGridMailer("SG.key")
	mailer.baseURL = srv.URL + "/v3/mail/send"

	err := mailer.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "verified Sender Identity")
}
