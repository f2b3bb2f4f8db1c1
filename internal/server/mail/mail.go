// Package mail is the notification gateway: it renders templated messages
// (welcome, reset-password) and delivers them over SMTP. Delivery failures
// are the caller's soft-failure concern; this package only reports them.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

// Template names accepted by Notifier.Send.
const (
	TemplateWelcome       = "welcome"
	TemplateResetPassword = "reset-password"
)

// Notifier sends a templated notification to a single recipient.
// Data carries template-specific values; the reset-password template
// expects "ResetURL".
type Notifier interface {
	Send(ctx context.Context, templateName string, recipient string, data map[string]string) error
}

type message struct {
	subject string
	body    *template.Template
}

var messages = map[string]message{
	TemplateWelcome: {
		subject: "Welcome",
		body: template.Must(template.New(TemplateWelcome).Parse(
			"Your account has been created.\n\nYou can now sign in with your email address.\n")),
	},
	TemplateResetPassword: {
		subject: "Password reset",
		body: template.Must(template.New(TemplateResetPassword).Parse(
			"A password reset was requested for your account.\n\n" +
				"Open the link below to choose a new password. The link expires soon.\n\n" +
				"{{.ResetURL}}\n\n" +
				"If you did not request this, you can ignore this message.\n")),
	},
}

// render produces the subject and body for a template, or an error for an
// unknown template name.
func render(templateName string, data map[string]string) (subject, body string, err error) {
	m, ok := messages[templateName]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template: %q", templateName)
	}
	var buf bytes.Buffer
	if err := m.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("rendering mail template %q: %w", templateName, err)
	}
	return m.subject, buf.String(), nil
}
