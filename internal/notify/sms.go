package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSOpts holds configuration options for the Twilio SMS sender.
type SMSOpts struct {
	AccountSID string
	AuthToken  string
	From       string
}

// SMSOption defines a configuration option for the Twilio SMS sender.
type SMSOption func(*SMSOpts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) SMSOption {
	return func(o *SMSOpts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) SMSOption {
	return func(o *SMSOpts) { o.AuthToken = token }
}

// WithFromNumber sets the sending phone number.
func WithFromNumber(from string) SMSOption {
	return func(o *SMSOpts) { o.From = from }
}

// SMSSender delivers notifications as SMS messages through the Twilio API.
type SMSSender struct {
	client *twilio.RestClient
	from   string
}

// NewSMSSender creates a Twilio SMS sender, falling back to the
// TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER environment
// variables for unset options.
func NewSMSSender(opts ...SMSOption) (*SMSSender, error) {
	var cfg SMSOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.From == "" {
		cfg.From = os.Getenv("TWILIO_FROM_NUMBER")
	}
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("from number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	slog.Debug("notify.NewSMSSender: sender ready", "from", cfg.From)
	return &SMSSender{client: client, from: cfg.From}, nil
}

// Send delivers the notification body to the route's phone number.
func (s *SMSSender) Send(_ context.Context, route Route, _ string, body string, _ map[string]string) error {
	if route.To == "" {
		return fmt.Errorf("route has no destination number")
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(route.To)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("sending SMS to %s: %w", route.To, err)
	}
	return nil
}
