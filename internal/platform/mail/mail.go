package mail

import (
	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender delivers a notification mail. Callers treat delivery as
// best-effort and never fail the triggering request on a mail error.
type Sender interface {
	Send(to, subject, body string) error
}

type SMTPSender struct{ cfg Config }

func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		log.WithField("to", to).Warnf("mail delivery failed: %v", err)
		return err
	}
	return nil
}

// Noop is used when SMTP is not configured.
type Noop struct{}

func (Noop) Send(string, string, string) error { return nil }
