// Package mailer provides outbound email dispatch.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/gaminghub/portal/internal/config"
)

// Dispatcher sends an email to a single recipient. Implementations are
// fire-and-forget collaborators: callers decide whether a failure matters.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPDispatcher sends mail through an SMTP relay with PLAIN auth.
type SMTPDispatcher struct {
	addr string
	host string
	from string
	auth smtp.Auth
}

// NewSMTPDispatcher creates a dispatcher from the mail transport config.
func NewSMTPDispatcher(cfg config.SMTPConfig) *SMTPDispatcher {
	return &SMTPDispatcher{
		addr: cfg.Addr(),
		host: cfg.Host,
		from: cfg.From,
		auth: smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
	}
}

// Send delivers a plain-text message. The context is consulted before the
// dial only; net/smtp offers no mid-transfer cancellation.
func (d *SMTPDispatcher) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(d.from, to, subject, body)
	if err := smtp.SendMail(d.addr, d.auth, d.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// Compile-time check to ensure SMTPDispatcher implements Dispatcher.
var _ Dispatcher = (*SMTPDispatcher)(nil)
