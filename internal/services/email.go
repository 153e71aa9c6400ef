package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"time"

	"gopkg.in/gomail.v2"

	"activation/internal/config"
)

// EmailService handles sending emails
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

type welcomeEmailData struct {
	Name         string
	Role         string
	DashboardURL string
	Year         string
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Your dashboard account</title>
</head>
<body style="margin: 0; padding: 0; background: #F8FAFC; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #334155;">
    <div style="max-width: 600px; margin: 0 auto; padding: 40px 20px;">
        <h2 style="color: #0D1A2D;">Welcome, {{.Name}}</h2>
        <p>An account with the <strong>{{.Role}}</strong> role has been created for you on the activation dashboard.</p>
        {{if .DashboardURL}}<p><a href="{{.DashboardURL}}" style="color: #1C5D99;">Sign in to the dashboard</a></p>{{end}}
        <p style="color: #64748B; font-size: 14px;">Ask the administrator who invited you for your initial password.</p>
        <p style="color: #94A3B8; font-size: 12px;">&copy; {{.Year}}</p>
    </div>
</body>
</html>`))

// SendWelcome tells a new dashboard user their account exists.
func (s *EmailService) SendWelcome(to, name, role string) error {
	if !s.cfg.Enabled {
		log.Printf("[EMAIL] Welcome email would be sent to %s", to)
		return nil
	}

	var body bytes.Buffer
	err := welcomeTemplate.Execute(&body, welcomeEmailData{
		Name:         name,
		Role:         role,
		DashboardURL: s.cfg.DashboardURL,
		Year:         time.Now().Format("2006"),
	})
	if err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}

	text := fmt.Sprintf("Welcome, %s\n\nAn account with the %s role has been created for you on the activation dashboard.\n%s\n", name, role, s.cfg.DashboardURL)
	return s.SendHTMLEmail(to, "Your dashboard account", body.String(), text)
}

// SendHTMLEmail sends an HTML email with plain text fallback
func (s *EmailService) SendHTMLEmail(to, subject, htmlBody, textBody string) error {
	if !s.cfg.Enabled {
		log.Printf("[EMAIL] Would send to %s: %s", to, subject)
		return nil
	}

	if s.cfg.SMTPHost == "" || s.cfg.Username == "" || s.cfg.Password == "" {
		return fmt.Errorf("email service not properly configured")
	}

	m := s.newMessage(to, subject, htmlBody, textBody)
	d := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailService) newMessage(to, subject, htmlBody, textBody string) *gomail.Message {
	m := gomail.NewMessage()
	if s.cfg.FromName != "" {
		m.SetAddressHeader("From", s.cfg.FromEmail, s.cfg.FromName)
	} else {
		m.SetHeader("From", s.cfg.FromEmail)
	}
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	if htmlBody != "" {
		m.AddAlternative("text/html", htmlBody)
	}
	return m
}

// IsEnabled returns whether email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.cfg.Enabled
}
