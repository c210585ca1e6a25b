// Package mailer relays storefront orders and inquiries to the sales inbox.
// Nothing is persisted on this path; mail is the system of record.
package mailer

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/gomail.v2"

	"github.com/satyam-chhatrala/gamma-ortho/utils"
)

// ErrUnavailable is returned when no SMTP relay is configured.
var ErrUnavailable = errors.New("mail delivery is not configured")

// Mailer delivers notifications. Implementations are safe for concurrent
// use.
type Mailer interface {
	// Available reports whether a relay was configured at startup.
	Available() bool
	// Send delivers one plain-text message to the sales inbox.
	Send(subject, body string) error
}

// SMTPMailer sends through the relay configured via SMTP_HOST, SMTP_PORT,
// SMTP_USERNAME, SMTP_PASSWORD, MAIL_FROM and MAIL_TO.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

// NewFromEnv returns an SMTPMailer, or Unconfigured when the relay env vars
// are missing so order endpoints can refuse up front instead of timing out.
func NewFromEnv() Mailer {
	host := os.Getenv("SMTP_HOST")
	from := os.Getenv("MAIL_FROM")
	to := os.Getenv("MAIL_TO")
	if host == "" || from == "" || to == "" {
		return Unconfigured{}
	}

	port := utils.EnvInt("SMTP_PORT", 587)
	dialer := gomail.NewDialer(host, port, os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD"))

	return &SMTPMailer{dialer: dialer, from: from, to: to}
}

func (m *SMTPMailer) Available() bool { return true }

func (m *SMTPMailer) Send(subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// Unconfigured is the explicit no-relay mailer.
type Unconfigured struct{}

func (Unconfigured) Available() bool { return false }

func (Unconfigured) Send(string, string) error { return ErrUnavailable }
