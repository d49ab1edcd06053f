package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BTreeMap/IntentPipe/internal/genai"
)

const genaiClassifierPrompt = `You are an intent classifier. Given a user message, respond with exactly one line of the form "intent|confidence" where intent is one of the labels below and confidence is a number between 0 and 1. Use "unknown|0" when no label fits.

Labels: %s`

// GenAIClassifier classifies intents with a chat model. It serves deployments
// that run without a dedicated model server.
type GenAIClassifier struct {
	client  genai.ClientInterface
	intents []string
}

// NewGenAIClassifier creates a classifier over the given GenAI client and
// intent label set.
func NewGenAIClassifier(client genai.ClientInterface, intents []string) *GenAIClassifier {
	slog.Debug("classifier.NewGenAIClassifier: classifier ready", "labels", len(intents))
	return &GenAIClassifier{client: client, intents: intents}
}

// Predict asks the model for an "intent|confidence" line. A malformed reply
// degrades to the raw label with nil confidence rather than failing the turn.
func (c *GenAIClassifier) Predict(ctx context.Context, normalizedText string) (Prediction, error) {
	system := fmt.Sprintf(genaiClassifierPrompt, strings.Join(c.intents, ", "))
	reply, err := c.client.Generate(ctx, system, normalizedText)
	if err != nil {
		return Prediction{}, fmt.Errorf("genai classification: %w", err)
	}

	parts := strings.SplitN(strings.TrimSpace(reply), "|", 2)
	intent := strings.TrimSpace(parts[0])
	if len(parts) < 2 {
		slog.Warn("classifier.GenAIClassifier.Predict: malformed model reply", "reply", reply)
		return Prediction{Intent: intent}, nil
	}
	conf, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || conf < 0 || conf > 1 {
		slog.Warn("classifier.GenAIClassifier.Predict: unparseable confidence", "reply", reply)
		return Prediction{Intent: intent}, nil
	}
	return Prediction{Intent: intent, Confidence: &conf}, nil
}
