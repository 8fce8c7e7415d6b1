package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"log/slog"

	"sodalis/config"

	"gopkg.in/gomail.v2"
)

// Mailer delivers a single message
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService sends friend notifications over SMTP.
// With no SMTP host configured it only logs what it would have sent.
type EmailService struct {
	mailer  Mailer
	from    string
	enabled bool
	logger  *slog.Logger
}

func NewEmailService(cfg config.SMTP, logger *slog.Logger) *EmailService {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	dialer.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}

	return &EmailService{
		mailer:  dialer,
		from:    fmt.Sprintf("%s <%s>", cfg.SenderName, cfg.User),
		enabled: cfg.Enabled(),
		logger:  logger,
	}
}

// NewEmailServiceWithMailer is used when the transport is provided by the caller
func NewEmailServiceWithMailer(m Mailer, from string, logger *slog.Logger) *EmailService {
	return &EmailService{mailer: m, from: from, enabled: true, logger: logger}
}

// FriendAdded tells toEmail that fromName added them as a friend
func (s *EmailService) FriendAdded(ctx context.Context, toEmail, toName, fromName string) error {
	if !s.enabled {
		s.logger.DebugContext(ctx, "smtp disabled, skipping friend notification", "to", toEmail)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("%s added you as a friend", fromName))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px;">
			<h2>Hello %s!</h2>
			<p><strong>%s</strong> added you as a friend on Sodalis.</p>
			<p>Add them back to follow each other's goals.</p>
		</div>
	`, html.EscapeString(toName), html.EscapeString(fromName))
	m.SetBody("text/html", body)

	if err := s.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send friend notification: %w", err)
	}
	return nil
}
