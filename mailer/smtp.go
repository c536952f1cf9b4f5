// Package mailer wraps the SMTP transport used for author notifications.
package mailer

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"journal-portal/config"
)

// SMTPMailer sends mail through a single configured SMTP account.
type SMTPMailer struct {
	Host string
	Port int
	User string
	Pass string
	From string

	// InsecureSkipVerify disables certificate verification. Dev only.
	InsecureSkipVerify bool
}

// New builds an SMTPMailer from the application config.
func New(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.EmailFrom,
	}
}

func (s *SMTPMailer) dialer() *mail.Dialer {
	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify,
	}
	return d
}

// SendWithAttachment sends a plain-text message to a single recipient with the
// given files attached. Each call opens its own connection.
func (s *SMTPMailer) SendWithAttachment(to, subject, textBody string, attachments ...string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	for _, path := range attachments {
		m.Attach(path)
	}

	if err := s.dialer().DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// SendBatches sends one BCC message per batch over a single reused connection.
// Recipients never see each other's addresses. It returns the number of
// batches handed to the server; the first failing batch aborts the run.
func (s *SMTPMailer) SendBatches(batches [][]string, subject, textBody, htmlBody string) (int, error) {
	if len(batches) == 0 {
		return 0, nil
	}

	sc, err := s.dialer().Dial()
	if err != nil {
		return 0, fmt.Errorf("smtp dial: %w", err)
	}
	defer sc.Close()

	sent := 0
	for _, bcc := range batches {
		m := mail.NewMessage()
		m.SetHeader("From", s.From)
		m.SetHeader("Bcc", bcc...)
		m.SetHeader("Subject", subject)
		m.SetBody("text/plain", textBody)
		if htmlBody != "" {
			m.AddAlternative("text/html", htmlBody)
		}
		if err := mail.Send(sc, m); err != nil {
			return sent, fmt.Errorf("smtp send batch %d: %w", sent+1, err)
		}
		sent++
	}
	return sent, nil
}
