package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// recordingSender captures the last dispatch for assertions.
type recordingSender struct {
	calls   int
	route   Route
	subject string
	body    string
	err     error
}

func (r *recordingSender) Send(_ context.Context, route Route, subject, body string, _ map[string]string) error {
	r.calls++
	r.route = route
	r.subject = subject
	r.body = body
	return r.err
}

func TestDispatcherNotify(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(
		map[string]Route{"demo_request": {Channel: ChannelEmail, Email: "sales@example.com"}},
		map[string]Sender{ChannelEmail: sender},
	)

	ok := d.Notify(context.Background(), "demo_request", map[string]string{
		"full_name": "Ada Lovelace",
		"email":     "ada@example.com",
	})
	if !ok {
		t.Fatal("expected delivery to succeed")
	}
	if sender.calls != 1 {
		t.Fatalf("expected 1 send, got %d", sender.calls)
	}
	if sender.subject != "New request: demo_request" {
		t.Errorf("unexpected subject: %q", sender.subject)
	}
	if !strings.Contains(sender.body, "- email: ada@example.com") {
		t.Errorf("body missing slot line: %q", sender.body)
	}
	// Slot lines render in sorted key order.
	if strings.Index(sender.body, "- email:") > strings.Index(sender.body, "- full_name:") {
		t.Errorf("slot lines not sorted: %q", sender.body)
	}
}

func TestDispatcherNotifyMissingRoute(t *testing.T) {
	d := NewDispatcher(map[string]Route{}, map[string]Sender{ChannelEmail: &recordingSender{}})
	if d.Notify(context.Background(), "unrouted", nil) {
		t.Error("expected false for unrouted intent")
	}
}

func TestDispatcherNotifyMissingSender(t *testing.T) {
	d := NewDispatcher(
		map[string]Route{"demo_request": {Channel: ChannelSMS, To: "+15551234567"}},
		map[string]Sender{},
	)
	if d.Notify(context.Background(), "demo_request", nil) {
		t.Error("expected false when no sender covers the channel")
	}
}

func TestDispatcherNotifyDeliveryFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp timeout")}
	d := NewDispatcher(
		map[string]Route{"demo_request": {Channel: ChannelEmail, Email: "sales@example.com"}},
		map[string]Sender{ChannelEmail: sender},
	)
	if d.Notify(context.Background(), "demo_request", nil) {
		t.Error("expected false on delivery failure")
	}
}

func TestDispatcherSubjectOverride(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(
		map[string]Route{"demo_request": {Channel: ChannelEmail, Subject: "Demo booking"}},
		map[string]Sender{ChannelEmail: sender},
	)
	d.Notify(context.Background(), "demo_request", nil)
	if sender.subject != "Demo booking" {
		t.Errorf("route subject not honored: %q", sender.subject)
	}
}

func TestLoadRoutes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yml")
	content := `
routes:
  demo_request:
    channel: email
    email: sales@example.com
    subject: "Demo booking"
  technical_support:
    channel: webhook
    url: https://hooks.example.com/support
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing routes file: %v", err)
	}

	routes, err := LoadRoutes(path)
	if err != nil {
		t.Fatalf("LoadRoutes failed: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	if routes["demo_request"].Channel != ChannelEmail || routes["demo_request"].Email != "sales@example.com" {
		t.Errorf("unexpected demo_request route: %+v", routes["demo_request"])
	}
	if routes["technical_support"].URL != "https://hooks.example.com/support" {
		t.Errorf("unexpected webhook route: %+v", routes["technical_support"])
	}
}

func TestWebhookSender(t *testing.T) {
	var received webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding webhook payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewWebhookSender()
	route := Route{Channel: ChannelWebhook, URL: srv.URL}
	err := sender.Send(context.Background(), route, "New request: demo_request", "body text", map[string]string{"email": "ada@example.com"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if received.Subject != "New request: demo_request" {
		t.Errorf("unexpected subject: %q", received.Subject)
	}
	if received.Slots["email"] != "ada@example.com" {
		t.Errorf("unexpected slots: %v", received.Slots)
	}
}

func TestWebhookSenderNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewWebhookSender()
	err := sender.Send(context.Background(), Route{URL: srv.URL}, "s", "b", nil)
	if err == nil {
		t.Fatal("expected error for 502 response, got nil")
	}
}
