package services

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"

	"github.com/HammerMeetNail/timegift/internal/config"
	"github.com/HammerMeetNail/timegift/internal/logging"
)

// Email represents an email to be sent
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// EmailProvider is the interface for sending emails
type EmailProvider interface {
	Send(ctx context.Context, email *Email) error
}

// EmailService renders gift emails and hands them to the configured provider.
type EmailService struct {
	provider EmailProvider
	baseURL  string
}

// NewEmailService creates a new email service based on configuration
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	from := fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress)

	var provider EmailProvider
	switch cfg.Provider {
	case "resend":
		provider = NewResendProvider(cfg.ResendAPIKey, from)
	case "smtp":
		provider = NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.FromAddress, from)
	default:
		provider = NewConsoleProvider()
	}

	return NewEmailServiceWithProvider(provider, cfg.BaseURL)
}

func NewEmailServiceWithProvider(provider EmailProvider, baseURL string) *EmailService {
	return &EmailService{provider: provider, baseURL: baseURL}
}

// SendGiftReceived tells an email-addressed recipient about a new gift.
func (s *EmailService) SendGiftReceived(ctx context.Context, to, senderName, message string, giftID uuid.UUID) error {
	giftURL := fmt.Sprintf("%s/gifts/%s", s.baseURL, giftID)
	htmlBody, text := renderGiftReceivedEmail(senderName, message, giftURL)

	return s.provider.Send(ctx, &Email{
		To:      to,
		Subject: fmt.Sprintf("%s sent you a TimeGift", senderName),
		HTML:    htmlBody,
		Text:    text,
	})
}

func renderGiftReceivedEmail(senderName, message, giftURL string) (htmlBody, text string) {
	htmlBody = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333; font-size: 24px;">You received a new TimeGift</h1>

  <p>%s is sharing some of their time with you:</p>

  <blockquote style="border-left: 4px solid #4F46E5; margin: 20px 0; padding: 8px 16px; color: #444;">%s</blockquote>

  <a href="%s"
     style="display: inline-block; background: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 20px 0;">
    View Your Gift
  </a>

  <p style="color: #666; font-size: 14px;">
    Gifts that wait too long slowly lose time, so don't leave it for too long.
  </p>

  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="color: #999; font-size: 12px;">TimeGift</p>
</body>
</html>`, html.EscapeString(senderName), html.EscapeString(message), html.EscapeString(giftURL))

	text = fmt.Sprintf(`You received a new TimeGift

%s is sharing some of their time with you:

"%s"

View your gift:
%s

Gifts that wait too long slowly lose time, so don't leave it for too long.

--
TimeGift`, senderName, message, giftURL)

	return htmlBody, text
}

// ResendProvider sends emails using the Resend API
type ResendProvider struct {
	client *resend.Client
	from   string
}

func NewResendProvider(apiKey, from string) *ResendProvider {
	return &ResendProvider{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (p *ResendProvider) Send(ctx context.Context, email *Email) error {
	params := &resend.SendEmailRequest{
		From:    p.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	}

	_, err := p.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("sending email via Resend: %w", err)
	}

	logging.Info("Email sent via Resend", logging.Fields{"to": email.To, "subject": email.Subject})
	return nil
}

// SMTPProvider sends emails via SMTP (for Mailpit in local dev)
type SMTPProvider struct {
	host     string
	port     int
	envelope string
	from     string
}

func NewSMTPProvider(host string, port int, envelope, from string) *SMTPProvider {
	return &SMTPProvider{host: host, port: port, envelope: envelope, from: from}
}

func (p *SMTPProvider) message(email *Email) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", p.from)
	fmt.Fprintf(&buf, "To: %s\r\n", email.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", email.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.HTML)
	return buf.Bytes()
}

func (p *SMTPProvider) Send(ctx context.Context, email *Email) error {
	addr := fmt.Sprintf("%s:%d", p.host, p.port)

	if err := smtp.SendMail(addr, nil, p.envelope, []string{email.To}, p.message(email)); err != nil {
		return fmt.Errorf("sending email via SMTP: %w", err)
	}

	logging.Info("Email sent via SMTP", logging.Fields{"to": email.To, "subject": email.Subject})
	return nil
}

// ConsoleProvider logs emails instead of sending them (for development)
type ConsoleProvider struct{}

func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

func (p *ConsoleProvider) Send(ctx context.Context, email *Email) error {
	logging.FromContext(ctx).Info("Email (console provider)", logging.Fields{
		"to":      email.To,
		"subject": email.Subject,
		"body":    email.Text,
	})
	return nil
}
