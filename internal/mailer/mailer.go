// Package mailer delivers transactional mail. An SMTP implementation
// backs production; a log implementation stands in when SMTP is not
// configured so development sign-ups and password resets still work.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// Mailer sends transactional messages to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTP delivers mail through an SMTP relay using go-mail.
type SMTP struct {
	client *mail.Client
	from   string
}

// NewSMTP builds an SMTP mailer. Returns an error if the client cannot
// be constructed; connection problems surface on Send.
func NewSMTP(host string, port int, username, password, from string) (*SMTP, error) {
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: client: %w", err)
	}
	return &SMTP{client: client, from: from}, nil
}

// Send delivers a plain-text message.
func (s *SMTP) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("mailer: from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mailer: to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}

// Log writes messages to the application log instead of sending them.
type Log struct{}

// Send logs the message. The recovery link ends up in the dev console.
func (Log) Send(_ context.Context, to, subject, body string) error {
	slog.Info("mail (not sent, SMTP unconfigured)", "to", to, "subject", subject, "body", body)
	return nil
}
