package services

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"flixstream/internal/models"

	"go.uber.org/zap"
	mail "gopkg.in/mail.v2"
)

// MailerService sends customer-facing subscription emails. Sends are
// best-effort: callers log failures and carry on.
type MailerService interface {
	SendActivation(ctx context.Context, email, fullName, planName string, creds models.Credentials) error
	SendRenewalReminder(ctx context.Context, email, fullName, planName string, expiresAt time.Time) error
}

type SMTPConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	Sender   string
}

type mailerService struct {
	cfg    SMTPConfig
	dialer *mail.Dialer
	logger *zap.Logger
}

var activationText = template.Must(template.New("activation").Parse(`Hello {{.FullName}},

Thank you for choosing FlixStream!

Your {{.PlanName}} subscription has been activated.

Here are your connection details:

Server URL: {{.URL}}
Username: {{.Username}}
Password: {{.Password}}

HOW TO USE YOUR CODES:

1. Download an IPTV application on your device:
   - IPTV Smarters Pro (recommended)
   - TiviMate
   - Perfect Player

2. Open the application and select "Login with Xtream Codes API"

3. Enter the details above

4. Enjoy your content!

If you run into any trouble, reach out to us on WhatsApp or Telegram.

Best regards,
The FlixStream team
`))

var reminderText = template.Must(template.New("reminder").Parse(`Hello {{.FullName}},

Your FlixStream {{.PlanName}} subscription expires on {{.ExpiresAt}}.

To keep enjoying our services without interruption, renew your subscription now.

Contact us to renew!

Best regards,
The FlixStream team
`))

// NewMailerService creates an SMTP mailer. With empty credentials it runs in
// placeholder mode: messages are logged instead of sent.
func NewMailerService(cfg SMTPConfig, logger *zap.Logger) MailerService {
	dialer := mail.NewDialer(cfg.Server, cfg.Port, cfg.Username, cfg.Password)
	dialer.Timeout = 10 * time.Second
	dialer.StartTLSPolicy = mail.MandatoryStartTLS

	return &mailerService{
		cfg:    cfg,
		dialer: dialer,
		logger: logger,
	}
}

func (s *mailerService) placeholderMode() bool {
	return s.cfg.Username == "" || s.cfg.Password == ""
}

func (s *mailerService) SendActivation(ctx context.Context, email, fullName, planName string, creds models.Credentials) error {
	subject := fmt.Sprintf("Your FlixStream subscription - %s", planName)
	body, err := render(activationText, map[string]string{
		"FullName": fullName,
		"PlanName": planName,
		"URL":      creds.URL,
		"Username": creds.Username,
		"Password": creds.Password,
	})
	if err != nil {
		return err
	}

	if s.placeholderMode() {
		s.logger.Info("simulated activation email, SMTP not configured",
			zap.String("recipient", email),
			zap.String("plan", planName),
			zap.String("username", creds.Username))
		return nil
	}

	return s.send(ctx, email, subject, body)
}

func (s *mailerService) SendRenewalReminder(ctx context.Context, email, fullName, planName string, expiresAt time.Time) error {
	subject := "Your FlixStream subscription expires soon"
	body, err := render(reminderText, map[string]string{
		"FullName":  fullName,
		"PlanName":  planName,
		"ExpiresAt": expiresAt.Format("02/01/2006"),
	})
	if err != nil {
		return err
	}

	if s.placeholderMode() {
		s.logger.Info("simulated renewal reminder email, SMTP not configured",
			zap.String("recipient", email),
			zap.String("plan", planName),
			zap.Time("expires_at", expiresAt))
		return nil
	}

	return s.send(ctx, email, subject, body)
}

func (s *mailerService) send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.Sender)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}

	s.logger.Info("email sent", zap.String("recipient", recipient), zap.String("subject", subject))
	return nil
}

func render(tmpl *template.Template, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %v", err)
	}
	return buf.String(), nil
}
