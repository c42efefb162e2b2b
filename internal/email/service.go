package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Service is the outbound mail channel. It is a non-authoritative convenience:
// a send failure must never affect persisted notification state.
type Service interface {
	SendCustom(ctx context.Context, to, subject, content string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg Config) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendCustom(_ context.Context, to, subject, content string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

type noopService struct{}

// NewNoopService returns a mailer that drops everything, for deployments with
// no SMTP configured.
func NewNoopService() Service {
	return noopService{}
}

func (noopService) SendCustom(context.Context, string, string, string) error {
	return nil
}
