package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// SMTPNotifier delivers notifications through an SMTP relay.
type SMTPNotifier struct {
	client *gomail.Client
	sender string
}

// NewSMTPNotifier builds a notifier for the given relay. Username may be
// empty for relays that accept unauthenticated submission.
func NewSMTPNotifier(host string, port int, username, password, sender string) (*SMTPNotifier, error) {
	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(username),
			gomail.WithPassword(password),
		)
	}

	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client init error: %w", err)
	}

	return &SMTPNotifier{client: client, sender: sender}, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, templateName string, recipient string, data map[string]string) error {
	subject, body, err := render(templateName, data)
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.From(n.sender); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(recipient); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send error: %w", err)
	}
	return nil
}
