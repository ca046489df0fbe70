package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

const (
	verifyTTLHours = 72
	resetTTLHours  = 24
)

// SMTPProvider sends the auth emails over SMTP via gomail.
type SMTPProvider struct {
	config    Config
	dialer    *gomail.Dialer
	templates *templateManager
}

func NewSMTPProvider(config Config) (*SMTPProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid email config: %w", err)
	}

	tm, err := newTemplateManager()
	if err != nil {
		return nil, err
	}

	return &SMTPProvider{
		config:    config,
		dialer:    gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.Username, config.Password),
		templates: tm,
	}, nil
}

func (p *SMTPProvider) SendVerificationEmail(to, token string) error {
	body, err := p.templates.render(p.templates.verification, templateData{
		ActionURL: fmt.Sprintf("%s/verify-email?token=%s", p.config.FrontendURL, token),
		TTLHours:  verifyTTLHours,
	})
	if err != nil {
		return err
	}
	return p.send(to, "Verify your email", body)
}

func (p *SMTPProvider) SendPasswordResetEmail(to, token string) error {
	body, err := p.templates.render(p.templates.passwordReset, templateData{
		ActionURL: fmt.Sprintf("%s/reset-password?token=%s", p.config.FrontendURL, token),
		TTLHours:  resetTTLHours,
	})
	if err != nil {
		return err
	}
	return p.send(to, "Reset your password", body)
}

func (p *SMTPProvider) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", p.config.FromEmail, p.config.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := p.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

func (p *SMTPProvider) Close() error {
	return nil
}
