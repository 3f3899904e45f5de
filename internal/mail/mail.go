// Package mail renders and dispatches account lifecycle emails.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/oakward/identity/pkg/email"
)

// Config holds the settings needed to build email links.
type Config struct {
	FrontendURL string `env:"FRONTEND_URL,required"`
	AppName     string `env:"APP_NAME" envDefault:"Identity"`
}

// Service implements auth.MailDispatcher.
type Service struct {
	sender email.EmailSender
	cfg    Config
}

// New creates the mail service over any EmailSender implementation.
func New(sender email.EmailSender, cfg Config) *Service {
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &Service{sender: sender, cfg: cfg}
}

// SendVerificationEmail sends the email-verification link.
func (s *Service) SendVerificationEmail(ctx context.Context, to, token string) error {
	body, err := render(verificationTmpl, templateData{
		AppName: s.cfg.AppName,
		Link:    fmt.Sprintf("%s/verify-email?token=%s", s.cfg.FrontendURL, token),
	})
	if err != nil {
		return err
	}
	return s.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  fmt.Sprintf("Verify your %s email", s.cfg.AppName),
		BodyHTML: body,
		Tag:      "email-verification",
	})
}

// SendPasswordResetEmail sends the password-reset link.
func (s *Service) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	body, err := render(passwordResetTmpl, templateData{
		AppName: s.cfg.AppName,
		Link:    fmt.Sprintf("%s/reset-password?token=%s", s.cfg.FrontendURL, token),
	})
	if err != nil {
		return err
	}
	return s.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  fmt.Sprintf("Reset your %s password", s.cfg.AppName),
		BodyHTML: body,
		Tag:      "password-reset",
	})
}

type templateData struct {
	AppName string
	Link    string
}

func render(tmpl *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return buf.String(), nil
}

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Welcome to {{.AppName}}</h2>
  <p>Confirm your email address to finish setting up your account.</p>
  <p><a href="{{.Link}}" style="display:inline-block;padding:10px 20px;background:#2563eb;color:#fff;text-decoration:none;border-radius:6px;">Verify email</a></p>
  <p>This link expires in 24 hours. If you did not create an account, you can ignore this email.</p>
</body>
</html>`))

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>{{.AppName}} password reset</h2>
  <p>Someone requested a password reset for your account.</p>
  <p><a href="{{.Link}}" style="display:inline-block;padding:10px 20px;background:#2563eb;color:#fff;text-decoration:none;border-radius:6px;">Reset password</a></p>
  <p>This link expires in 1 hour. If this was not you, no action is needed.</p>
</body>
</html>`))
