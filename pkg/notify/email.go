package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// emailChannel delivers messages over SMTP.
type emailChannel struct {
	host      string
	port      int
	sender    string
	password  string
	recipient string
}

// NewEmailChannel creates an SMTP notification channel.
func NewEmailChannel(host string, port int, sender, password, recipient string) Channel {
	return &emailChannel{
		host:      host,
		port:      port,
		sender:    sender,
		password:  password,
		recipient: recipient,
	}
}

func (c *emailChannel) Name() string {
	return "email"
}

func (c *emailChannel) Send(_ context.Context, msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.sender)
	fmt.Fprintf(&b, "To: %s\r\n", c.recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	auth := smtp.PlainAuth("", c.sender, c.password, c.host)
	if err := smtp.SendMail(addr, auth, c.sender, []string{c.recipient}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", addr, err)
	}
	return nil
}
