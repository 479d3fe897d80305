package workers

import (
	"context"

	"github.com/rs/zerolog"
)

// Message is one outgoing email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them. It is the
// default until a real provider is configured.
type LogMailer struct {
	Logger zerolog.Logger
}

func (m LogMailer) Send(ctx context.Context, msg Message) error {
	m.Logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("Mail sent (log mailer)")
	return nil
}
