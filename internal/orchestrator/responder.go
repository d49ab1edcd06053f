package orchestrator

import (
	"context"
	"fmt"

	"github.com/BTreeMap/IntentPipe/internal/genai"
)

// Responder is the generic fallback collaborator consulted when no other
// tier produced a reply.
type Responder interface {
	Respond(ctx context.Context, utterance string) (string, error)
}

// StaticResponder always returns the same fallback message. It serves
// deployments that run without an LLM backend.
type StaticResponder struct {
	Message string
}

// DefaultFallbackMessage is used when a StaticResponder has no message set.
const DefaultFallbackMessage = "I'm not sure I understood that. Could you rephrase, or ask about our products, pricing, or support?"

// Respond returns the configured static message.
func (s *StaticResponder) Respond(_ context.Context, _ string) (string, error) {
	if s.Message == "" {
		return DefaultFallbackMessage, nil
	}
	return s.Message, nil
}

const fallbackSystemPrompt = "You are a helpful, concise customer assistant. Answer the user's message in one or two sentences. If the request needs human follow-up, say the team will be in touch."

// GenAIResponder produces fallback replies with a chat model.
type GenAIResponder struct {
	client genai.ClientInterface
}

// NewGenAIResponder creates a fallback responder over the given GenAI client.
func NewGenAIResponder(client genai.ClientInterface) *GenAIResponder {
	return &GenAIResponder{client: client}
}

// Respond generates a reply for the utterance.
func (r *GenAIResponder) Respond(ctx context.Context, utterance string) (string, error) {
	reply, err := r.client.Generate(ctx, fallbackSystemPrompt, utterance)
	if err != nil {
		return "", fmt.Errorf("fallback generation: %w", err)
	}
	return reply, nil
}
