package email

import (
	"fmt"
	"net/smtp"
)

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     string `env:"SMTP_PORT,default=587"`
	Sender   string `env:"SMTP_SENDER"`
	Password string `env:"SMTP_PASSWORD"`
}

// Enabled reports whether enough settings are present to send mail.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Sender != ""
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends plain text email through an SMTP relay.
type Mailer struct {
	cfg  SMTPConfig
	send sendFunc
}

func NewMailer(cfg SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// SendEmail sends a plain text email using SMTP.
func (m *Mailer) SendEmail(to, subject, body string) error {
	var auth smtp.Auth
	if m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Sender, m.cfg.Password, m.cfg.Host)
	}

	msg := []byte("From: " + m.cfg.Sender + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" + body + "\r\n")

	address := m.cfg.Host + ":" + m.cfg.Port

	if err := m.send(address, auth, m.cfg.Sender, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
