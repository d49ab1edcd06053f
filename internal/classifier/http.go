package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// DefaultHTTPTimeout bounds one model-server round trip.
const DefaultHTTPTimeout = 10 * time.Second

// HTTPOpts holds configuration options for the HTTP classifier.
type HTTPOpts struct {
	Endpoint string
	Timeout  time.Duration
}

// HTTPOption defines a configuration option for the HTTP classifier.
type HTTPOption func(*HTTPOpts)

// WithEndpoint sets the model server prediction endpoint.
func WithEndpoint(url string) HTTPOption {
	return func(o *HTTPOpts) { o.Endpoint = url }
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(o *HTTPOpts) { o.Timeout = d }
}

// HTTPClassifier calls an external model server over HTTP. The server is
// expected to accept {"text": ...} and answer with an intent label and an
// optional confidence score.
type HTTPClassifier struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClassifier creates a classifier client for the given endpoint.
func NewHTTPClassifier(opts ...HTTPOption) (*HTTPClassifier, error) {
	cfg := HTTPOpts{Timeout: DefaultHTTPTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("classifier endpoint must be provided")
	}
	slog.Debug("classifier.NewHTTPClassifier: client ready", "endpoint", cfg.Endpoint, "timeout", cfg.Timeout)
	return &HTTPClassifier{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type predictRequest struct {
	Text string `json:"text"`
}

// Predict posts the normalized text to the model server.
func (c *HTTPClassifier) Predict(ctx context.Context, normalizedText string) (Prediction, error) {
	body, err := json.Marshal(predictRequest{Text: normalizedText})
	if err != nil {
		return Prediction{}, fmt.Errorf("encoding predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("building predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("calling model server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Prediction{}, fmt.Errorf("model server returned status %d", resp.StatusCode)
	}

	var p Prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Prediction{}, fmt.Errorf("decoding predict response: %w", err)
	}
	slog.Debug("classifier.HTTPClassifier.Predict: prediction received", "intent", p.Intent, "has_confidence", p.Confidence != nil)
	return p, nil
}
