package mailer

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/dashkeeper/internal/logging"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridNotifier delivers mail through the SendGrid v3 API.
type SendGridNotifier struct {
	client sendClient
	from   *mail.Email
}

func NewSendGridNotifier(apiKey, from string) *SendGridNotifier {
	return &SendGridNotifier{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("", from),
	}
}

func (n *SendGridNotifier) Send(ctx context.Context, msg Message) error {
	email := mail.NewSingleEmail(n.from, msg.Subject, mail.NewEmail("", msg.To), "", msg.HTML)

	resp, err := n.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogNotifier only logs messages. It is used when no SendGrid key is set.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.log.Info(ctx, "mail not sent, no provider configured", "to", msg.To, "subject", msg.Subject)
	return nil
}
