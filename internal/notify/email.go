package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"os"
)

// EmailOpts holds configuration options for the SMTP sender.
type EmailOpts struct {
	Host string
	Port string
	User string
	Pass string
}

// EmailOption defines a configuration option for the SMTP sender.
type EmailOption func(*EmailOpts)

// WithSMTPHost sets the SMTP server host.
func WithSMTPHost(host string) EmailOption {
	return func(o *EmailOpts) { o.Host = host }
}

// WithSMTPPort sets the SMTP server port.
func WithSMTPPort(port string) EmailOption {
	return func(o *EmailOpts) { o.Port = port }
}

// WithSMTPCredentials sets the SMTP username and password.
func WithSMTPCredentials(user, pass string) EmailOption {
	return func(o *EmailOpts) {
		o.User = user
		o.Pass = pass
	}
}

// EmailSender delivers notifications over SMTP.
type EmailSender struct {
	host string
	port string
	user string
	pass string
}

// NewEmailSender creates an SMTP sender, falling back to the SMTP_HOST,
// SMTP_PORT, SMTP_USER and SMTP_PASS environment variables for unset options.
func NewEmailSender(opts ...EmailOption) (*EmailSender, error) {
	var cfg EmailOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Host == "" {
		cfg.Host = os.Getenv("SMTP_HOST")
	}
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == "" {
		cfg.Port = os.Getenv("SMTP_PORT")
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if cfg.User == "" {
		cfg.User = os.Getenv("SMTP_USER")
	}
	if cfg.Pass == "" {
		cfg.Pass = os.Getenv("SMTP_PASS")
	}
	if cfg.User == "" || cfg.Pass == "" {
		return nil, fmt.Errorf("SMTP_USER and SMTP_PASS must be provided")
	}
	slog.Debug("notify.NewEmailSender: sender ready", "host", cfg.Host, "port", cfg.Port)
	return &EmailSender{host: cfg.Host, port: cfg.Port, user: cfg.User, pass: cfg.Pass}, nil
}

// Send delivers the notification to the route's email address.
func (s *EmailSender) Send(_ context.Context, route Route, subject, body string, _ map[string]string) error {
	if route.Email == "" {
		return fmt.Errorf("route has no email address")
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", s.user, route.Email, subject, body)
	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := s.host + ":" + s.port
	if err := smtp.SendMail(addr, auth, s.user, []string{route.Email}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", route.Email, err)
	}
	return nil
}
