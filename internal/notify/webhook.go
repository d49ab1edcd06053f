package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultWebhookTimeout bounds one webhook delivery attempt.
const DefaultWebhookTimeout = 10 * time.Second

// WebhookSender delivers notifications as JSON POSTs to the route's URL.
type WebhookSender struct {
	client *http.Client
}

// NewWebhookSender creates a webhook sender with the default timeout.
func NewWebhookSender() *WebhookSender {
	return &WebhookSender{client: &http.Client{Timeout: DefaultWebhookTimeout}}
}

// webhookPayload is the JSON body posted to webhook destinations.
type webhookPayload struct {
	Subject string            `json:"subject"`
	Body    string            `json:"body"`
	Slots   map[string]string `json:"slots"`
}

// Send posts the notification to the route's URL.
func (s *WebhookSender) Send(ctx context.Context, route Route, subject, body string, slots map[string]string) error {
	if route.URL == "" {
		return fmt.Errorf("route has no webhook URL")
	}
	payload, err := json.Marshal(webhookPayload{Subject: subject, Body: body, Slots: slots})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, route.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
