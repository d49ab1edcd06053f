// Package notify dispatches post-flow completion actions.
//
// Each intent routes to a destination (email, webhook, or SMS) declared in a
// YAML route file. Dispatch is best-effort and fire-and-forget: the result is
// logged and reported as a boolean, never acted upon by the flow engine.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/BTreeMap/IntentPipe/internal/models"
	"gopkg.in/yaml.v3"
)

// Route channels.
const (
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
	ChannelSMS     = "sms"
)

// Route declares where a completed flow's collected data is delivered.
type Route struct {
	Channel string `yaml:"channel"`
	Email   string `yaml:"email,omitempty"`   // destination address for the email channel
	URL     string `yaml:"url,omitempty"`     // destination for the webhook channel
	To      string `yaml:"to,omitempty"`      // destination number for the sms channel
	Subject string `yaml:"subject,omitempty"` // email subject override
}

// Sender delivers one rendered notification over a specific channel.
type Sender interface {
	Send(ctx context.Context, route Route, subject, body string, slots map[string]string) error
}

// Dispatcher routes completed-flow notifications to channel senders.
type Dispatcher struct {
	routes  map[string]Route
	senders map[string]Sender
}

// NewDispatcher creates a dispatcher over the given routes and senders.
func NewDispatcher(routes map[string]Route, senders map[string]Sender) *Dispatcher {
	slog.Debug("notify.NewDispatcher: dispatcher ready", "routes", len(routes), "channels", len(senders))
	return &Dispatcher{routes: routes, senders: senders}
}

// routeFile is the YAML shape of the department routes config.
type routeFile struct {
	Routes map[string]Route `yaml:"routes"`
}

// LoadRoutes reads the intent-to-destination route config from path.
func LoadRoutes(path string) (map[string]Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewConfigError("reading routes file %s: %v", path, err)
	}
	var f routeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, models.NewConfigError("parsing routes file %s: %v", path, err)
	}
	slog.Info("notify.LoadRoutes: routes loaded", "path", path, "count", len(f.Routes))
	return f.Routes, nil
}

// Notify delivers the collected slots for a completed flow. It returns false
// when no route is configured for the intent, no sender covers the route's
// channel, or delivery fails.
func (d *Dispatcher) Notify(ctx context.Context, intent string, slots map[string]string) bool {
	route, ok := d.routes[intent]
	if !ok {
		slog.Warn("notify.Dispatcher.Notify: no route configured for intent", "intent", intent)
		return false
	}

	sender, ok := d.senders[route.Channel]
	if !ok {
		slog.Warn("notify.Dispatcher.Notify: no sender for channel", "intent", intent, "channel", route.Channel)
		return false
	}

	subject := route.Subject
	if subject == "" {
		subject = fmt.Sprintf("New request: %s", intent)
	}
	body := renderBody(intent, slots)

	if err := sender.Send(ctx, route, subject, body, slots); err != nil {
		slog.Error("notify.Dispatcher.Notify: delivery failed", "intent", intent, "channel", route.Channel, "error", err)
		return false
	}
	slog.Info("notify.Dispatcher.Notify: notification delivered", "intent", intent, "channel", route.Channel)
	return true
}

// renderBody builds the plain-text notification with the collected details in
// a stable order.
func renderBody(intent string, slots map[string]string) string {
	var b strings.Builder
	b.WriteString("New request received\n")
	b.WriteString("Intent: " + intent + "\n\n")
	b.WriteString("Collected details:\n")

	keys := make([]string, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("- %s: %s\n", k, slots[k]))
	}
	return b.String()
}
