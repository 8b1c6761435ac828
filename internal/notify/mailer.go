package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avolkov/revtrack/pkg/config"
	mail "github.com/go-mail/mail/v2"
)

// Mailer sends mail synchronously over SMTP. The dialer timeout bounds the
// whole send so a slow relay cannot hang a request; a timeout counts as a
// delivery failure.
type Mailer struct {
	dialer *mail.Dialer
	from   string
	appURL string
	log    *slog.Logger
}

func NewMailer(cfg *config.SMTPConfig, appURL string, log *slog.Logger) *Mailer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.Timeout = cfg.Timeout()
	d.StartTLSPolicy = mail.OpportunisticStartTLS

	return &Mailer{
		dialer: d,
		from:   cfg.From,
		appURL: appURL,
		log:    log,
	}
}

func (m *Mailer) SendCode(ctx context.Context, email, code string, purpose Purpose) error {
	var subject, intro string
	switch purpose {
	case PurposeReset:
		subject = "Password reset code"
		intro = "You requested a password reset. Your confirmation code:"
	case PurposeEmailChange:
		subject = "Email change confirmation"
		intro = "You requested to change your email address. Your confirmation code:"
	default:
		subject = "Registration confirmation code"
		intro = "Your confirmation code:"
	}

	body := fmt.Sprintf(`<html>
  <body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <h2>%s</h2>
    <p>%s</p>
    <div style="background: #f0f9ff; padding: 20px; text-align: center; border-radius: 8px; margin: 20px 0;">
      <h1 style="font-size: 36px; margin: 0; letter-spacing: 8px;">%s</h1>
    </div>
    <p style="color: #666;">The code is valid for 15 minutes.</p>
    <p style="color: #999; font-size: 12px;">If you did not request this, just ignore this email.</p>
  </body>
</html>`, subject, intro, code)

	return m.send(ctx, email, subject, body)
}

func (m *Mailer) SendInvitation(ctx context.Context, email, token, companyName, inviterName string) error {
	link := fmt.Sprintf("%s/accept-invitation?token=%s", m.appURL, token)
	subject := fmt.Sprintf("Invitation to join %s", companyName)

	body := fmt.Sprintf(`<html>
  <body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <h2>You have been invited</h2>
    <p><strong>%s</strong> invites you to join <strong>%s</strong> on Revenue Tracking.</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="%s" style="background-color: #2563eb; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Accept invitation</a>
    </div>
    <p style="color: #666; font-size: 14px;">The link is valid for 7 days.</p>
    <p style="color: #999; font-size: 12px;">If you were not expecting this invitation, just ignore this email.</p>
  </body>
</html>`, inviterName, companyName, link)

	return m.send(ctx, email, subject, body)
}

func (m *Mailer) send(ctx context.Context, to, subject, html string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			m.log.Warn("email delivery failed", "to", to, "subject", subject, "error", err)
			return fmt.Errorf("sending email: %w", err)
		}
		return nil
	case <-ctx.Done():
		m.log.Warn("email delivery cancelled", "to", to, "subject", subject)
		return ctx.Err()
	}
}

var _ Notifier = (*Mailer)(nil)
