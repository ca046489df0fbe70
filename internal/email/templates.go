package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// The two auth messages ship embedded; there is no template directory to
// deploy alongside the binary.

const verificationTemplate = `
<html>
  <body style="font-family: sans-serif; color: #333;">
    <h2>Verify your email</h2>
    <p>Welcome! Please confirm your email address by clicking the link below.</p>
    <p><a href="{{.ActionURL}}">Verify email</a></p>
    <p>This link expires in {{.TTLHours}} hours. If you did not create an
    account, you can ignore this message.</p>
  </body>
</html>`

const passwordResetTemplate = `
<html>
  <body style="font-family: sans-serif; color: #333;">
    <h2>Reset your password</h2>
    <p>We received a request to reset your password. Click the link below to
    choose a new one.</p>
    <p><a href="{{.ActionURL}}">Reset password</a></p>
    <p>This link expires in {{.TTLHours}} hours and can be used once. If you
    did not request a reset, you can ignore this message.</p>
  </body>
</html>`

type templateData struct {
	ActionURL string
	TTLHours  int
}

type templateManager struct {
	verification  *template.Template
	passwordReset *template.Template
}

func newTemplateManager() (*templateManager, error) {
	verification, err := template.New("verification").Parse(verificationTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse verification template: %w", err)
	}
	passwordReset, err := template.New("password_reset").Parse(passwordResetTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse password reset template: %w", err)
	}
	return &templateManager{
		verification:  verification,
		passwordReset: passwordReset,
	}, nil
}

func (m *templateManager) render(t *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", t.Name(), err)
	}
	return buf.String(), nil
}
