// Package classifier defines the intent classifier collaborator and its
// implementations.
//
// The decision cascade treats the classifier as external, potentially slow
// and failing I/O: predictions carry an optional confidence, and a nil
// confidence fails every threshold test downstream.
package classifier

import "context"

// Prediction is one classifier output. A nil Confidence means the model
// could not score its label; the cascade routes such turns to fallback.
type Prediction struct {
	Intent     string   `json:"intent"`
	Confidence *float64 `json:"confidence"`
}

// Classifier predicts an intent label for normalized text.
type Classifier interface {
	Predict(ctx context.Context, normalizedText string) (Prediction, error)
}

// Static is a fixed-table classifier used in tests and local development.
type Static struct {
	Predictions map[string]Prediction
}

// Predict looks the text up in the fixed table. Unknown text yields an empty
// prediction with nil confidence.
func (s *Static) Predict(_ context.Context, normalizedText string) (Prediction, error) {
	if p, ok := s.Predictions[normalizedText]; ok {
		return p, nil
	}
	return Prediction{}, nil
}

// Confidence is a convenience constructor for a float confidence pointer.
func Confidence(v float64) *float64 {
	return &v
}
