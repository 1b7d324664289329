package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPDispatcher sends mail through a plain SMTP relay.
type SMTPDispatcher struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPDispatcher(host string, port int, username, password, from string) *SMTPDispatcher {
	d := &SMTPDispatcher{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
	}
	if username != "" {
		d.auth = smtp.PlainAuth("", username, password, host)
	}
	return d
}

func (d *SMTPDispatcher) Send(_ context.Context, to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", d.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(d.addr, d.auth, d.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
