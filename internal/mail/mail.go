// Package mail renders and delivers account emails.
package mail

import (
	"context"
	"errors"
	"strings"

	"github.com/hongminglow/express-accounts/internal/logging"
)

// ErrMissingConfig is returned when SMTP delivery is not fully configured.
var ErrMissingConfig = errors.New("missing send email configuration")

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them. It is used
// when no SMTP host is configured.
type LogSender struct {
	Log logging.Logger
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("mail: empty recipient")
	}
	s.Log.Info(ctx, "email not delivered, smtp disabled",
		"to", msg.To,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}
