package notifier

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	defaultSMTPHost = "smtp.gmail.com"
	defaultSMTPPort = 587
	emailSubject    = "Crypto alert"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email sends plain-text mail over SMTP with STARTTLS.
type Email struct {
	sender    string
	password  string
	recipient string
	host      string
	port      int
	sendMail  sendMailFunc
}

// NewEmail uses smtp.gmail.com:587 when host is empty.
func NewEmail(sender, password, recipient, host string, port int) *Email {
	if host == "" {
		host = defaultSMTPHost
	}
	if port == 0 {
		port = defaultSMTPPort
	}
	return &Email{
		sender:    sender,
		password:  password,
		recipient: recipient,
		host:      host,
		port:      port,
		sendMail:  smtp.SendMail,
	}
}

func (e *Email) Send(ctx context.Context, message string) error {
	if e.sender == "" || e.password == "" || e.recipient == "" {
		return errors.Wrap(ErrNotConfigured, "email: set EMAIL_SENDER, EMAIL_PASSWORD and EMAIL_RECIPIENT")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", e.sender, e.password, e.host)
	addr := net.JoinHostPort(e.host, strconv.Itoa(e.port))
	if err := e.sendMail(addr, auth, e.sender, []string{e.recipient}, e.compose(message)); err != nil {
		return errors.Wrap(err, "email: send")
	}
	return nil
}

func (e *Email) compose(message string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.sender)
	fmt.Fprintf(&b, "To: %s\r\n", e.recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", emailSubject)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(message)
	b.WriteString("\r\n")
	return []byte(b.String())
}
